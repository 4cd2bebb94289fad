package remote

import "encoding/json"

// Wire types of the compiler service protocol. The service is expected
// to implement three methods:
//
//	session/evaluate  evaluateParams -> evaluateResult
//	session/complete  completeParams -> []lsp.CompletionItem
//	session/warm      (notification, no params)

type evaluateParams struct {
	Code       string   `json:"code"`
	References []string `json:"references,omitempty"`
}

type evaluateResult struct {
	HasValue     bool            `json:"hasValue"`
	Value        json.RawMessage `json:"value,omitempty"`
	Bindings     []wireBinding   `json:"bindings,omitempty"`
	Usings       []string        `json:"usings,omitempty"`
	Diagnostic   *wireDiagnostic `json:"diagnostic,omitempty"`
	RuntimeError string          `json:"runtimeError,omitempty"`
}

type wireBinding struct {
	Name     string          `json:"name"`
	TypeName string          `json:"typeName"`
	Value    json.RawMessage `json:"value,omitempty"`
}

type wireDiagnostic struct {
	Message    string `json:"message"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

type completeParams struct {
	Code   string `json:"code"`
	Offset int    `json:"offset"`
}
