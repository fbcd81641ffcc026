package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const processRequestSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "text": {"type": ["string", "null"]},
    "use_image": {}
  }
}`

var processRequestSchema = mustCompileSchema("process_request.json", processRequestSchemaJSON)

func mustCompileSchema(name, schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("adding schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// processRequest is the JSON body of POST /api/process
type processRequest struct {
	Text     *string `json:"text"`
	UseImage any     `json:"use_image"`
}

// decodeProcessRequest validates a JSON body against the request schema and
// decodes it
func decodeProcessRequest(body []byte) (*processRequest, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling request: %w", err)
	}
	if err := processRequestSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("request does not match schema: %w", err)
	}

	var req processRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("unmarshaling request: %w", err)
	}
	return &req, nil
}

// input turns a request body into a pipeline input
func (r *processRequest) input() Input {
	in := Input{Mode: ParseMode(r.UseImage)}
	if r.Text != nil {
		in.Text = *r.Text
	}
	return in
}
