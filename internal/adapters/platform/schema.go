package platform

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/activity.json
var activitySchemaJSON []byte

const activitySchemaURL = "https://pwnwatch.local/schema/activity.json"

var activitySchema = mustCompile(activitySchemaURL, activitySchemaJSON)

func mustCompile(url string, raw []byte) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("platform: parsing embedded schema %s: %v", url, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("platform: adding embedded schema %s: %v", url, err))
	}
	return c.MustCompile(url)
}

// validateRecord checks one raw feed record against the activity schema.
func validateRecord(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := activitySchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}
