package state

import (
	"github.com/neomestre/neomestre/internal/store"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// repair returns sel with every dangling pointer replaced:
//
//  1. An unset or unknown account becomes the first account (nil when there
//     are none) and the section pointer is reset.
//  2. An unset section, or one that is not in the current account, becomes
//     the account's last listed section (nil when it has none). The portal
//     lists sections oldest first, so the last one is the most recent.
//
// Pointers that are already valid are returned unchanged.
func repair(accounts []unimestre.Snapshot, sel store.Selection) store.Selection {
	acct, ok := findAccount(accounts, sel.CurrentAccountID)
	if !ok {
		sel.CurrentSectionID = nil
		if len(accounts) == 0 {
			sel.CurrentAccountID = nil
			return sel
		}
		acct = accounts[0]
		sel.CurrentAccountID = intPtr(acct.AccountID())
	}

	if sel.CurrentSectionID != nil {
		if _, ok := acct.Section(*sel.CurrentSectionID); ok {
			return sel
		}
	}
	sel.CurrentSectionID = defaultSection(acct)
	return sel
}

// defaultSection is the section chosen when an account is first selected.
func defaultSection(acct unimestre.Snapshot) *int {
	if sec, ok := acct.LastSection(); ok {
		return intPtr(sec.ID)
	}
	return nil
}

func findAccount(accounts []unimestre.Snapshot, id *int) (unimestre.Snapshot, bool) {
	if id == nil {
		return unimestre.Snapshot{}, false
	}
	idx := indexOf(accounts, *id)
	if idx < 0 {
		return unimestre.Snapshot{}, false
	}
	return accounts[idx], true
}

func indexOf(accounts []unimestre.Snapshot, id int) int {
	for i, a := range accounts {
		if a.AccountID() == id {
			return i
		}
	}
	return -1
}

func intPtr(v int) *int { return &v }

func equalPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
