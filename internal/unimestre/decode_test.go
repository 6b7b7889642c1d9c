package unimestre

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/snapshot.json")
	require.NoError(t, err)
	return raw
}

// envelopeWith builds a minimal successful response, letting callers replace
// individual top-level arrays.
func envelopeWith(t *testing.T, overrides map[string]any) []byte {
	t.Helper()
	result := map[string]any{
		"pessoas":                        []any{map[string]any{"cd_pessoa": 1, "ds_nome": "Aluno"}},
		"turmas":                         []any{},
		"matriculas":                     []any{},
		"arr_etapas":                     []any{},
		"arr_disciplinas_boletim":        []any{},
		"arr_disciplinas_material_apoio": []any{},
		"arr_materiais_apoio":            []any{},
		"arr_materiais_apoio_arquivos":   []any{},
	}
	for k, v := range overrides {
		if v == nil {
			delete(result, k)
			continue
		}
		result[k] = v
	}
	raw, err := json.Marshal(map[string]any{"sucesso": true, "resultado": result})
	require.NoError(t, err)
	return raw
}

func material(id int, date string) map[string]any {
	return map[string]any{
		"cd_disciplina":     7,
		"cd_turma":          1,
		"ds_titulo":         "Material",
		"me_descricao":      "",
		"dt_material":       date,
		"cd_material_apoio": id,
	}
}

func TestDecode_Fixture(t *testing.T) {
	snap, err := Decode(loadFixture(t))
	require.NoError(t, err)

	assert.Equal(t, 4821, snap.AccountID())
	assert.Equal(t, "Ana Beatriz Souza", snap.Self().Name)
	require.Len(t, snap.Sections, 2)

	last, ok := snap.LastSection()
	require.True(t, ok)
	assert.Equal(t, 355, last.ID)

	var names []string
	for _, s := range snap.SupportSubjects {
		names = append(names, s.SubjectName)
	}
	assert.Equal(t, []string{"LÓGICA", "CÁLCULO I", "BANCO DE DADOS", "ALGORITMOS"}, names)

	var ids []int
	for _, m := range snap.Materials {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int{702, 703, 701, 601}, ids)
}

func TestDecode_NormalizesCodes(t *testing.T) {
	snap, err := Decode(loadFixture(t))
	require.NoError(t, err)

	// Second entry is sent with string codes.
	e := snap.GradeEntries[1]
	assert.Equal(t, Code(12), e.SubjectID)
	assert.Equal(t, Code(355), e.SectionID)
	assert.Equal(t, Code(2), e.StageNumber)
	assert.Nil(t, e.Score)
	assert.Nil(t, e.FinalAverage)
	assert.Nil(t, e.Status)
	assert.True(t, e.HasExam)

	first := snap.GradeEntries[0]
	require.NotNil(t, first.Score)
	assert.Equal(t, "8,5", *first.Score)
	require.NotNil(t, first.FinalAverage)
	assert.InDelta(t, 8.5, *first.FinalAverage, 1e-9)
}

func TestDecode_SortsMaterialsByDateDescending(t *testing.T) {
	raw := envelopeWith(t, map[string]any{
		"arr_materiais_apoio": []any{
			material(1, "2021-01-01"),
			material(2, "2021-03-05"),
			material(3, "2020-12-31"),
		},
	})
	snap, err := Decode(raw)
	require.NoError(t, err)

	var dates []string
	for _, m := range snap.Materials {
		dates = append(dates, m.Date)
	}
	assert.Equal(t, []string{"2021-03-05", "2021-01-01", "2020-12-31"}, dates)
}

func TestDecode_StableSorts(t *testing.T) {
	raw := envelopeWith(t, map[string]any{
		"arr_materiais_apoio": []any{
			material(1, "2021-01-01"),
			material(2, "2021-01-01"),
			material(3, "2021-01-01T00:00:00"),
		},
		"arr_disciplinas_material_apoio": []any{
			map[string]any{"cd_disciplina": 1, "ds_disciplina": "FÍSICA", "cd_turma": 1},
			map[string]any{"cd_disciplina": 2, "ds_disciplina": "FÍSICA", "cd_turma": 2},
			map[string]any{"cd_disciplina": 3, "ds_disciplina": "QUÍMICA", "cd_turma": 1},
		},
	})
	snap, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, []int{snap.Materials[0].ID, snap.Materials[1].ID, snap.Materials[2].ID})
	assert.Equal(t, []int{3, 1, 2}, []int{
		snap.SupportSubjects[0].SubjectID,
		snap.SupportSubjects[1].SubjectID,
		snap.SupportSubjects[2].SubjectID,
	})
}

func TestDecode_Rejected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"failure flag", `{"sucesso": false}`},
		{"failure flag with result", `{"sucesso": false, "resultado": {"pessoas": []}}`},
		{"missing result", `{"sucesso": true}`},
		{"null result", `{"sucesso": true, "resultado": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, IsLoginRejected(err), "got %v", err)
			assert.True(t, errors.Is(err, ErrNoResult))
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	badDate := envelopeWith(t, map[string]any{
		"arr_materiais_apoio": []any{material(1, "ontem")},
	})
	missingArray := envelopeWith(t, map[string]any{"arr_etapas": nil})
	noPeople := envelopeWith(t, map[string]any{"pessoas": []any{}})
	wrongType := envelopeWith(t, map[string]any{
		"turmas": []any{map[string]any{"cd_turma": "abc", "ds_chave_turma": "", "ds_anosemestre": "", "ds_descricao": ""}},
	})
	badCode := envelopeWith(t, map[string]any{
		"arr_disciplinas_boletim": []any{map[string]any{
			"cd_disciplina": "x1", "ds_disciplina": "A", "cd_turma": 1, "nr_etapa": 1, "sn_situacao_exame": false,
		}},
	})

	tests := []struct {
		name string
		raw  []byte
	}{
		{"not json", []byte("<html>erro</html>")},
		{"empty body", []byte("")},
		{"array envelope", []byte(`[]`)},
		{"missing success flag", []byte(`{"resultado": {}}`)},
		{"success flag wrong type", []byte(`{"sucesso": "true"}`)},
		{"result not object", []byte(`{"sucesso": true, "resultado": 3}`)},
		{"unparseable date", badDate},
		{"missing array", missingArray},
		{"empty people", noPeople},
		{"wrong field type", wrongType},
		{"non numeric code", badCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "got %v", err)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	snap, err := Decode(loadFixture(t))
	require.NoError(t, err)

	raw, err := Encode(snap)
	require.NoError(t, err)

	again, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestEncode_NilCollections(t *testing.T) {
	raw, err := Encode(&Snapshot{People: []Person{{ID: 3, Name: "X"}}})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"arr_materiais_apoio":[]`)

	snap, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.AccountID())
}

func TestCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    Code
		wantErr bool
	}{
		{`7`, 7, false},
		{`"7"`, 7, false},
		{`" 42 "`, 42, false},
		{`"-3"`, -3, false},
		{`"abc"`, 0, true},
		{`"2.5"`, 0, true},
		{`2.5`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c Code
			err := json.Unmarshal([]byte(tt.in), &c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestCode_MarshalJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		C Code `json:"c"`
	}{C: 20})
	require.NoError(t, err)
	assert.Equal(t, `{"c":20}`, string(raw))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-08-05")
	require.NoError(t, err)
	assert.Equal(t, time.Local, d.Location())
	assert.Equal(t, 5, d.Day())

	d, err = ParseDate("2024-08-05T14:30:00")
	require.NoError(t, err)
	assert.Equal(t, 14, d.Hour())

	d, err = ParseDate("2024-08-05T14:30:00.123-03:00")
	require.NoError(t, err)
	_, offset := d.Zone()
	assert.Equal(t, -3*3600, offset)

	_, err = ParseDate("05/08/2024")
	assert.Error(t, err)
}

func TestMaterial_FormattedDate(t *testing.T) {
	m := Material{Date: "2024-08-05"}
	assert.Equal(t, "05/08/24", m.FormattedDate())

	m = Material{Date: "sem data"}
	assert.Equal(t, "sem data", m.FormattedDate())
}

func TestFormatAverage(t *testing.T) {
	v := 8.5
	assert.Equal(t, "8,5", FormatAverage(&v))
	v = 7
	assert.Equal(t, "7,0", FormatAverage(&v))
	assert.Equal(t, "-", FormatAverage(nil))
}

func TestSupportSubject_DisplayName(t *testing.T) {
	s := SupportSubject{SubjectName: "CÁLCULO DIFERENCIAL"}
	assert.Equal(t, "Cálculo Diferencial", s.DisplayName())
}

func TestSnapshot_Lookups(t *testing.T) {
	var empty Snapshot
	assert.Equal(t, Person{}, empty.Self())
	_, ok := empty.LastSection()
	assert.False(t, ok)

	snap, err := Decode(loadFixture(t))
	require.NoError(t, err)
	sec, ok := snap.Section(310)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(sec.Description, "Análise"))
	_, ok = snap.Section(999)
	assert.False(t, ok)
}
