package unimestre

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// envelopeSchema only checks the outer shape; the result is validated
// separately so a rejected login is not reported as malformed.
var envelopeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"sucesso": map[string]any{"type": "boolean"},
	},
	"required": []any{"sucesso"},
}

var snapshotSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"pessoas": arrayOf(1, object(
			props{"cd_pessoa": integer, "ds_nome": str},
		)),
		"turmas": arrayOf(0, object(
			props{"cd_turma": integer, "ds_chave_turma": str, "ds_anosemestre": str, "ds_descricao": str},
		)),
		"matriculas": arrayOf(0, object(
			props{"cd_matricula": integer, "cd_turma": integer},
		)),
		"arr_etapas": arrayOf(0, object(
			props{
				"cd_turma_etapa":     integer,
				"cd_matricula":       integer,
				"ds_etapa_descricao": str,
				"ds_etapa_abreviado": str,
				"nr_ordenacao":       integer,
			},
		)),
		"arr_disciplinas_boletim": arrayOf(0, object(
			props{
				"cd_disciplina":     code,
				"ds_disciplina":     str,
				"cd_turma":          code,
				"nr_etapa":          code,
				"sn_situacao_exame": boolean,
			},
			props{
				"vl_nota":        nullable("string"),
				"vl_media_final": nullable("number"),
				"ds_situacao":    nullable("string"),
			},
		)),
		"arr_disciplinas_material_apoio": arrayOf(0, object(
			props{"cd_disciplina": integer, "ds_disciplina": str, "cd_turma": integer},
		)),
		"arr_materiais_apoio": arrayOf(0, object(
			props{
				"cd_disciplina":     integer,
				"cd_turma":          integer,
				"ds_titulo":         str,
				"me_descricao":      str,
				"dt_material":       str,
				"cd_material_apoio": integer,
			},
			props{"ds_link_material": nullable("string")},
		)),
		"arr_materiais_apoio_arquivos": arrayOf(0, object(
			props{"cd_material_arquivo": integer, "ds_nome_arquivo": str, "cd_material_apoio": integer},
		)),
	},
	"required": []any{
		"pessoas", "turmas", "matriculas", "arr_etapas", "arr_disciplinas_boletim",
		"arr_disciplinas_material_apoio", "arr_materiais_apoio", "arr_materiais_apoio_arquivos",
	},
}

type props map[string]any

var (
	integer = map[string]any{"type": "integer"}
	str     = map[string]any{"type": "string"}
	boolean = map[string]any{"type": "boolean"}
	code    = map[string]any{"type": []any{"integer", "string"}, "pattern": `^\s*-?[0-9]+\s*$`}
)

func nullable(typ string) map[string]any {
	return map[string]any{"type": []any{typ, "null"}}
}

// object builds an object schema; every property in required is mandatory,
// the optional ones may be absent.
func object(required props, optional ...props) map[string]any {
	properties := map[string]any{}
	names := make([]any, 0, len(required))
	for k, v := range required {
		properties[k] = v
		names = append(names, k)
	}
	for _, o := range optional {
		for k, v := range o {
			properties[k] = v
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   names,
	}
}

func arrayOf(minItems int, items map[string]any) map[string]any {
	return map[string]any{
		"type":     "array",
		"items":    items,
		"minItems": minItems,
	}
}

var (
	compileOnce sync.Once
	compiled    struct {
		envelope *jsonschema.Schema
		snapshot *jsonschema.Schema
	}
	compileErr error
)

func schemas() (envelope, snapshot *jsonschema.Schema, err error) {
	compileOnce.Do(func() {
		compiled.envelope, compileErr = compileSchema("envelope", envelopeSchema)
		if compileErr != nil {
			return
		}
		compiled.snapshot, compileErr = compileSchema("snapshot", snapshotSchema)
	})
	return compiled.envelope, compiled.snapshot, compileErr
}

func compileSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	// The compiler wants plain decoded JSON values, not Go maps of typed values.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://unimestre/%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return s, nil
}
