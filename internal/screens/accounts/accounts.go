package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/router"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/syncer"
	"github.com/neomestre/neomestre/internal/ui/layout"
	"github.com/neomestre/neomestre/internal/ui/theme"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// row is one selectable (account, section) pair.
type row struct {
	accountID int
	name      string
	section   unimestre.Section
}

// RefreshedMsg reports the end of a background refresh.
type RefreshedMsg struct {
	AccountID int
	Outcome   *syncer.Outcome
	Err       error
}

// AccountsScreen lists every cached account with its sections. Enter makes
// the highlighted pair current, r refreshes the highlighted account and b
// toggles the biometric lock.
type AccountsScreen struct {
	state  *state.State
	syncer *syncer.Syncer
	rows   []row
	cursor int
	status string
	failed bool
}

var (
	_ screen.Screen          = (*AccountsScreen)(nil)
	_ screen.KeyHintProvider = (*AccountsScreen)(nil)
)

// New creates an AccountsScreen. sy may be nil, which disables refresh.
func New(st *state.State, sy *syncer.Syncer) *AccountsScreen {
	a := &AccountsScreen{state: st, syncer: sy}
	a.reload()
	if sel := st.Selection(); sel.CurrentAccountID != nil && sel.CurrentSectionID != nil {
		for i, r := range a.rows {
			if r.accountID == *sel.CurrentAccountID && r.section.ID == *sel.CurrentSectionID {
				a.cursor = i
				break
			}
		}
	}
	return a
}

func (a *AccountsScreen) reload() {
	a.rows = a.rows[:0]
	for _, acct := range a.state.Accounts() {
		for _, sec := range acct.Sections {
			a.rows = append(a.rows, row{accountID: acct.AccountID(), name: acct.Self().Name, section: sec})
		}
	}
	if a.cursor >= len(a.rows) {
		a.cursor = max(len(a.rows)-1, 0)
	}
}

func (a *AccountsScreen) Init() tea.Cmd {
	return nil
}

func (a *AccountsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshedMsg:
		a.finishRefresh(msg)
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.cursor < len(a.rows)-1 {
				a.cursor++
			}
		case "enter":
			return a, a.selectRow()
		case "r":
			return a, a.refresh()
		case "b":
			a.toggleBiometrics()
		}
	}
	return a, nil
}

func (a *AccountsScreen) selectRow() tea.Cmd {
	if a.cursor >= len(a.rows) {
		return nil
	}
	r := a.rows[a.cursor]
	ctx := context.Background()
	if _, err := a.state.SelectAccount(ctx, r.accountID); err != nil {
		a.setError("não foi possível salvar a seleção.")
		return nil
	}
	if _, err := a.state.SelectSection(ctx, r.section.ID); err != nil {
		a.setError("não foi possível salvar a seleção.")
		return nil
	}
	return func() tea.Msg { return router.PopScreenMsg{} }
}

// refresh starts a background refresh of the highlighted account.
func (a *AccountsScreen) refresh() tea.Cmd {
	if a.syncer == nil || a.cursor >= len(a.rows) {
		return nil
	}
	id := a.rows[a.cursor].accountID
	if a.syncer.Status(syncer.AccountKey(id)) == syncer.InFlight {
		return nil
	}
	a.status, a.failed = fmt.Sprintf("atualizando %s…", a.rows[a.cursor].name), false

	sy := a.syncer
	return func() tea.Msg {
		out, err := sy.Refresh(context.Background(), id)
		return RefreshedMsg{AccountID: id, Outcome: out, Err: err}
	}
}

func (a *AccountsScreen) finishRefresh(msg RefreshedMsg) {
	if msg.Err != nil {
		var uerr *unimestre.Error
		if errors.As(msg.Err, &uerr) {
			a.setError(uerr.Message())
		} else {
			a.setError("não foi possível atualizar a conta.")
		}
		return
	}
	if msg.Outcome != nil && msg.Outcome.Skipped {
		return
	}
	a.reload()
	name := ""
	if msg.Outcome != nil {
		name = msg.Outcome.Name
	}
	a.status, a.failed = fmt.Sprintf("%s atualizada.", name), false
}

func (a *AccountsScreen) toggleBiometrics() {
	on := !a.state.Settings().Biometrics
	if err := a.state.SetBiometrics(context.Background(), on); err != nil {
		a.setError("não foi possível salvar a configuração.")
		return
	}
	if on {
		a.status, a.failed = "bloqueio ativado.", false
	} else {
		a.status, a.failed = "bloqueio desativado.", false
	}
}

func (a *AccountsScreen) setError(s string) {
	a.status, a.failed = s, true
}

// Status returns the last status line.
func (a *AccountsScreen) Status() string {
	return a.status
}

func (a *AccountsScreen) View(width, height int) string {
	var b strings.Builder

	if len(a.rows) == 0 {
		b.WriteString(theme.Hint.Render("Nenhuma conta cadastrada. Use `neomestre login`."))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	sel := a.state.Selection()
	lastAccount := -1
	for i, r := range a.rows {
		if r.accountID != lastAccount {
			if lastAccount != -1 {
				b.WriteString("\n")
			}
			head := fmt.Sprintf("%s (%d)", r.name, r.accountID)
			if a.syncer != nil && a.syncer.Status(syncer.AccountKey(r.accountID)) == syncer.InFlight {
				head += " ⟳"
			}
			b.WriteString(theme.Body.Bold(true).Render(head))
			b.WriteString("\n")
			lastAccount = r.accountID
		}

		current := sel.CurrentAccountID != nil && *sel.CurrentAccountID == r.accountID &&
			sel.CurrentSectionID != nil && *sel.CurrentSectionID == r.section.ID
		mark := "  "
		if current {
			mark = "● "
		}
		line := mark + layout.Truncate(fmt.Sprintf("%s · %s", r.section.Key, r.section.Term), max(width-12, 20))
		if i == a.cursor {
			b.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			b.WriteString(theme.Unselected.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	lock := "desativado"
	if a.state.Settings().Biometrics {
		lock = "ativado"
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("bloqueio: " + lock))

	if a.status != "" {
		b.WriteString("\n")
		style := lipgloss.NewStyle().Foreground(theme.Success)
		if a.failed {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		b.WriteString(style.Render(a.status))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (a *AccountsScreen) Title() string {
	return "Contas"
}

func (a *AccountsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Selecionar"},
		{Key: "r", Description: "Atualizar"},
		{Key: "b", Description: "Bloqueio"},
		{Key: "Esc", Description: "Voltar"},
	}
}
