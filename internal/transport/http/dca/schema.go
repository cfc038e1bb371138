package dcahttp

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed simulate.schema.json
var simulateSchemaSource string

var simulateSchema = jsonschema.MustCompileString("simulate.schema.json", simulateSchemaSource)

// validateSimulatePayload 在绑定前用 JSON Schema 校验请求体形状，
// 把"字段拼错/类型不对"挡在参数语义校验之前。
func validateSimulatePayload(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("body is not valid JSON: %w", err)
	}
	if err := simulateSchema.Validate(doc); err != nil {
		return err
	}
	return nil
}
