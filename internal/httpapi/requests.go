// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CodeRequestInvalid marks a request body that failed schema validation.
const CodeRequestInvalid = "REQUEST_INVALID"

// SignUpRequest is the body of POST /api/auth/signUp.
type SignUpRequest struct {
	Email    string `json:"email" jsonschema:"required,format=email"`
	Password string `json:"password" jsonschema:"required,minLength=8,maxLength=72"`
	Name     string `json:"name" jsonschema:"required,minLength=1"`
	LastName string `json:"lastName" jsonschema:"required,minLength=1"`
	DNI      string `json:"DNI" jsonschema:"required,minLength=1"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" jsonschema:"required,format=email"`
	Password string `json:"password" jsonschema:"required,minLength=1"`
}

// UpdateUserRequest is the body of PATCH /api/auth/updateUser.
// Password and activation are not updatable here.
type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty" jsonschema:"format=email"`
	Name     *string `json:"name,omitempty"`
	LastName *string `json:"lastName,omitempty"`
	DNI      *string `json:"DNI,omitempty"`
}

// ForgetPasswordRequest is the body of POST /api/auth/forget-password.
type ForgetPasswordRequest struct {
	Email string `json:"email" jsonschema:"required,minLength=1"`
}

// ConfirmPasswordRequest is the body of POST /api/auth/confirm-password/:email.
type ConfirmPasswordRequest struct {
	OTPCode  int    `json:"otp_code" jsonschema:"required"`
	Password string `json:"password" jsonschema:"required,minLength=8,maxLength=72"`
}

// requestTypes lists every validated body, keyed by schema name.
var requestTypes = map[string]any{
	"sign-up":          &SignUpRequest{},
	"login":            &LoginRequest{},
	"update-user":      &UpdateUserRequest{},
	"forget-password":  &ForgetPasswordRequest{},
	"confirm-password": &ConfirmPasswordRequest{},
}

func reflectSchema(v any) *jsonschema.Schema {
	r := jsonschema.Reflector{
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(v)
}

// GenerateSchemas returns the JSON Schema of every request body, keyed by name.
func GenerateSchemas() (map[string][]byte, error) {
	out := make(map[string][]byte, len(requestTypes))
	for name, v := range requestTypes {
		schema := reflectSchema(v)
		schema.Title = "accountd " + name + " request"
		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return nil, oops.Code("SCHEMA_GENERATE_FAILED").With("schema", name).Wrap(err)
		}
		out[name] = data
	}
	return out, nil
}

// validator holds one compiled schema per request type.
type validator struct {
	schemas map[reflect.Type]*jschema.Schema
}

func newValidator() (*validator, error) {
	v := &validator{schemas: make(map[reflect.Type]*jschema.Schema, len(requestTypes))}
	for name, req := range requestTypes {
		sch, err := compileSchema(name, req)
		if err != nil {
			return nil, err
		}
		v.schemas[reflect.TypeOf(req)] = sch
	}
	return v, nil
}

func compileSchema(name string, req any) (*jschema.Schema, error) {
	raw, err := json.Marshal(reflectSchema(req))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
	}

	c := jschema.NewCompiler()
	c.AssertFormat()
	url := name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").With("schema", name).Wrap(err)
	}
	return sch, nil
}

// decode validates body against dst's schema and then unmarshals it into dst.
// dst must be a pointer to one of the request types.
func (v *validator) decode(body []byte, dst any) error {
	sch, ok := v.schemas[reflect.TypeOf(dst)]
	if !ok {
		return oops.Code("SCHEMA_MISSING").Errorf("no schema for %T", dst)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return oops.Code(CodeRequestInvalid).Errorf("request body is required")
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return oops.Code(CodeRequestInvalid).Wrapf(err, "request body is not valid JSON")
	}

	if err := sch.Validate(doc); err != nil {
		return oops.Code(CodeRequestInvalid).
			With("violations", violations(err)).
			Errorf("request body failed validation")
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return oops.Code(CodeRequestInvalid).Wrapf(err, "request body does not match the expected types")
	}
	return nil
}

// violations flattens a validation error into one line per failing location.
func violations(err error) []string {
	var verr *jschema.ValidationError
	if !errors.As(err, &verr) {
		return []string{err.Error()}
	}

	printer := message.NewPrinter(language.English)
	var out []string
	var walk func(e *jschema.ValidationError)
	walk = func(e *jschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := "/" + strings.Join(e.InstanceLocation, "/")
			out = append(out, loc+": "+e.ErrorKind.LocalizedString(printer))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return out
}
