// Package privileged speaks the gRPC contract of the firewall and
// interception collaborators. Messages are google.protobuf.Struct values
// carrying the JSON form of the domain types, so no generated stubs exist.
package privileged

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	firewallService     = "netguard.privileged.v1.Firewall"
	interceptionService = "netguard.privileged.v1.Interception"
)

func method(service, name string) string {
	return "/" + service + "/" + name
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message must be an object: %w", err)
	}
	return structpb.NewStruct(m)
}

// field decodes one top-level field of s into v.
func field(s *structpb.Struct, name string, v any) error {
	f, ok := s.GetFields()[name]
	if !ok {
		return fmt.Errorf("missing field %q", name)
	}
	b, err := protojson.Marshal(f)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
