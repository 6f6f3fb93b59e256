package lookupserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const contractTemplate = `openapi: 3.0.3
info:
  title: Lookup API
  version: "1.0"
paths:
  %[1]s/{entity}:
    get:
      operationId: lookupEntity
      summary: Search records of one entity
      parameters:
        - name: entity
          in: path
          required: true
          schema: {type: string}
        - name: q
          in: query
          schema: {type: string}
        - name: limit
          in: query
          schema: {type: integer, minimum: 1}
        - name: X-Tenant-ID
          in: header
          schema: {type: string}
      responses:
        "200":
          description: Matching records
          content:
            application/json:
              schema:
                oneOf:
                  - $ref: "#/components/schemas/RecordList"
                  - type: object
                    required: [items]
                    properties:
                      items: {$ref: "#/components/schemas/RecordList"}
        "403": {description: Tenant not allowed}
        "404": {description: Unknown entity}
components:
  schemas:
    Record:
      type: object
      required: [id]
      additionalProperties: true
      properties:
        id: {}
        label: {type: string}
        name: {type: string}
        code: {type: string}
        sku: {type: string}
        barcode: {type: string}
        unit_price: {type: number}
    RecordList:
      type: array
      items: {$ref: "#/components/schemas/Record"}
`

// Contract builds and validates the OpenAPI document of the lookup endpoint
// mounted at mount.
func Contract(ctx context.Context, mount string) (*openapi3.T, error) {
	mount = strings.TrimRight(strings.TrimSpace(mount), "/")
	if mount == "" {
		mount = "/api/lookup"
	}
	if !strings.HasPrefix(mount, "/") {
		mount = "/" + mount
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData([]byte(fmt.Sprintf(contractTemplate, mount)))
	if err != nil {
		return nil, fmt.Errorf("lookupserver: load contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("lookupserver: validate contract: %w", err)
	}
	return doc, nil
}
