package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/xtding233/junkroom/internal/ledger"
)

const schemaURL = "junkroom://player-data.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

// PlayerDataSchema reflects the JSON schema of ledger.PlayerData. Saves from
// older builds may lack fields or carry extra ones, so nothing is required
// and unknown properties are allowed.
func PlayerDataSchema() ([]byte, error) {
	r := invopop.Reflector{
		RequiredFromJSONSchemaTags: true,
		AllowAdditionalProperties:  true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
	s := r.Reflect(&ledger.PlayerData{})
	s.Title = "Junk Room Player Data"
	return json.MarshalIndent(s, "", "  ")
}

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := PlayerDataSchema()
		if err != nil {
			schemaErr = fmt.Errorf("reflect schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// decodePlayerData validates raw JSON against the schema and decodes it.
func decodePlayerData(b []byte) (ledger.PlayerData, error) {
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return ledger.PlayerData{}, fmt.Errorf("decode player data: %w", err)
	}
	s, err := compiledSchema()
	if err != nil {
		return ledger.PlayerData{}, err
	}
	if err := s.Validate(doc); err != nil {
		return ledger.PlayerData{}, fmt.Errorf("validate player data: %w", err)
	}
	var p ledger.PlayerData
	if err := json.Unmarshal(b, &p); err != nil {
		return ledger.PlayerData{}, fmt.Errorf("decode player data: %w", err)
	}
	for id, n := range p.CollectedItems {
		if n < 0 {
			return ledger.PlayerData{}, fmt.Errorf("validate player data: negative count for %s", id)
		}
	}
	return p, nil
}
