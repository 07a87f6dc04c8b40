// Package rpc serves clause sets over gRPC. Messages are built dynamically
// from an embedded proto schema.
package rpc

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

const (
	schemaFile  = "clausegen.proto"
	ServiceName = "clausegen.v1.ClauseService"
	MethodName  = "ProgramClauses"
	// FullMethod is the method path used by clients.
	FullMethod = "/" + ServiceName + "/" + MethodName
)

//go:embed clausegen.proto
var schemaSource string

// Schema holds the descriptors of the embedded proto file.
type Schema struct {
	File     *desc.FileDescriptor
	Service  *desc.ServiceDescriptor
	Method   *desc.MethodDescriptor
	Clause   *desc.MessageDescriptor
	Response *desc.MessageDescriptor
	Bundle   *desc.MessageDescriptor
}

var (
	schemaOnce sync.Once
	schema     *Schema
	schemaErr  error
)

// LoadSchema parses the embedded schema once.
func LoadSchema() (*Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = parseSchema()
	})
	return schema, schemaErr
}

func parseSchema() (*Schema, error) {
	parser := protoparse.Parser{
		Accessor:              protoparse.FileContentsFromMap(map[string]string{schemaFile: schemaSource}),
		IncludeSourceCodeInfo: true,
	}
	fds, err := parser.ParseFiles(schemaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	fd := fds[0]
	s := &Schema{File: fd, Service: fd.FindService(ServiceName)}
	if s.Service == nil {
		return nil, fmt.Errorf("service %s not found in %s", ServiceName, schemaFile)
	}
	if s.Method = s.Service.FindMethodByName(MethodName); s.Method == nil {
		return nil, fmt.Errorf("method %s not found in %s", MethodName, ServiceName)
	}
	s.Response = s.Method.GetOutputType()
	s.Clause = fd.FindMessage("clausegen.v1.ProgramClause")
	s.Bundle = fd.FindMessage("clausegen.v1.Bundle")
	if s.Clause == nil || s.Bundle == nil {
		return nil, fmt.Errorf("messages missing from %s", schemaFile)
	}
	return s, nil
}
