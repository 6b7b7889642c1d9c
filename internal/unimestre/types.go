package unimestre

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Snapshot is one account's full academic data pull ("resultado").
// People[0] is the account owner.
type Snapshot struct {
	People          []Person         `json:"pessoas"`
	Sections        []Section        `json:"turmas"`
	Enrollments     []Enrollment     `json:"matriculas"`
	GradeStages     []GradeStage     `json:"arr_etapas"`
	GradeEntries    []GradeEntry     `json:"arr_disciplinas_boletim"`
	SupportSubjects []SupportSubject `json:"arr_disciplinas_material_apoio"`
	Materials       []Material       `json:"arr_materiais_apoio"`
	MaterialFiles   []MaterialFile   `json:"arr_materiais_apoio_arquivos"`
}

// Self returns the account owner. The decoder guarantees People is non-empty;
// a zero Person is returned for hand-built snapshots that violate that.
func (s Snapshot) Self() Person {
	if len(s.People) == 0 {
		return Person{}
	}
	return s.People[0]
}

// AccountID is the identity key of the account this snapshot belongs to.
func (s Snapshot) AccountID() int {
	return s.Self().ID
}

// Section returns the section with the given id.
func (s Snapshot) Section(id int) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.ID == id {
			return sec, true
		}
	}
	return Section{}, false
}

// LastSection returns the last listed section, which the portal uses as the
// most recent one.
func (s Snapshot) LastSection() (Section, bool) {
	if len(s.Sections) == 0 {
		return Section{}, false
	}
	return s.Sections[len(s.Sections)-1], true
}

// Person is a portal identity ("pessoa").
type Person struct {
	ID   int    `json:"cd_pessoa"`
	Name string `json:"ds_nome"`
}

// Section is a class/term grouping ("turma").
type Section struct {
	ID          int    `json:"cd_turma"`
	Key         string `json:"ds_chave_turma"`
	Term        string `json:"ds_anosemestre"`
	Description string `json:"ds_descricao"`
}

// Enrollment links an enrollment record to a section ("matrícula").
type Enrollment struct {
	ID        int `json:"cd_matricula"`
	SectionID int `json:"cd_turma"`
}

// GradeStage is a grading period within an enrollment ("etapa").
type GradeStage struct {
	ID           int    `json:"cd_turma_etapa"`
	EnrollmentID int    `json:"cd_matricula"`
	Description  string `json:"ds_etapa_descricao"`
	ShortLabel   string `json:"ds_etapa_abreviado"`
	Order        int    `json:"nr_ordenacao"`
}

// GradeEntry is one subject's grade within one stage.
type GradeEntry struct {
	SubjectID    Code     `json:"cd_disciplina"`
	SubjectName  string   `json:"ds_disciplina"`
	Score        *string  `json:"vl_nota"`
	FinalAverage *float64 `json:"vl_media_final"`
	Status       *string  `json:"ds_situacao"`
	SectionID    Code     `json:"cd_turma"`
	StageNumber  Code     `json:"nr_etapa"`
	HasExam      bool     `json:"sn_situacao_exame"`
}

// FormatAverage renders an average with one decimal and a decimal comma
// ("8,5"). A missing average renders as "-".
func FormatAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.Replace(strconv.FormatFloat(*v, 'f', 1, 64), ".", ",", 1)
}

// SupportSubject is a subject that has support materials.
type SupportSubject struct {
	SubjectID   int    `json:"cd_disciplina"`
	SubjectName string `json:"ds_disciplina"`
	SectionID   int    `json:"cd_turma"`
}

// DisplayName returns the subject name title-cased the way the portal's
// Portuguese names read best ("CÁLCULO I" → "Cálculo I").
func (s SupportSubject) DisplayName() string {
	return cases.Title(language.BrazilianPortuguese).String(s.SubjectName)
}

// Material is a support material posted for a subject.
type Material struct {
	SubjectID   int     `json:"cd_disciplina"`
	SectionID   int     `json:"cd_turma"`
	Title       string  `json:"ds_titulo"`
	Description string  `json:"me_descricao"`
	Date        string  `json:"dt_material"`
	ID          int     `json:"cd_material_apoio"`
	Link        *string `json:"ds_link_material"`
}

// ParsedDate parses the material's ISO 8601 date.
func (m Material) ParsedDate() (time.Time, error) {
	return ParseDate(m.Date)
}

// FormattedDate renders the date in the short pt-BR form (dd/mm/yy), local
// time. Unparseable dates render as the raw string.
func (m Material) FormattedDate() string {
	t, err := m.ParsedDate()
	if err != nil {
		return m.Date
	}
	return t.Local().Format("02/01/06")
}

// MaterialFile is a downloadable file attached to a material.
type MaterialFile struct {
	ID         int    `json:"cd_material_arquivo"`
	FileName   string `json:"ds_nome_arquivo"`
	MaterialID int    `json:"cd_material_apoio"`
}

// dateLayouts are tried in order. Layouts without a zone are read as local time.
var dateLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02", true},
}

// ParseDate parses the date formats the portal has been seen to emit.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		var (
			t   time.Time
			err error
		)
		if l.local {
			t, err = time.ParseInLocation(l.layout, s, time.Local)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Code is an integer identifier that older payloads send as a string.
// It decodes from a JSON number or a numeric string and always encodes as a
// number.
type Code int

// Int returns the code as a plain int.
func (c Code) Int() int { return int(c) }

// String implements fmt.Stringer.
func (c Code) String() string { return strconv.Itoa(int(c)) }

func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("code %q is not an integer", s)
		}
		*c = Code(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("code %s is not an integer", data)
	}
	*c = Code(n)
	return nil
}

func (c Code) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(int(c))), nil
}
