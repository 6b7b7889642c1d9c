package home

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var weekdays = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

var months = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// DateTitle renders t as the home screen title, e.g.
// "QUARTA-FEIRA, 15 DE OUTUBRO".
func DateTitle(t time.Time) string {
	return cases.Upper(language.BrazilianPortuguese).String(fmt.Sprintf("%s, %d de %s",
		weekdays[t.Weekday()], t.Day(), months[t.Month()-1]))
}
