// Package lookupserver serves the lookup HTTP contract over an in-memory
// dataset: GET {base}/api/lookup/{entity}?q=&limit= answers with
// {"items": [...]} ranked prefix matches first.
//
// It is a development and test double for the production endpoints. The
// dataset can be loaded from YAML and reloaded when the file changes, and the
// contract itself is published as an OpenAPI document under
// {base}/api/lookup/_contract.
package lookupserver
