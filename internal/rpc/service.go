package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/funvibe/clausegen/internal/cache"
	"github.com/funvibe/clausegen/internal/clauses"
	"github.com/funvibe/clausegen/internal/logging"
	"github.com/funvibe/clausegen/internal/lowering"
	"github.com/funvibe/clausegen/internal/symbols"
	"github.com/funvibe/clausegen/internal/typesystem"
)

// Service answers ClauseService requests from one declaration table.
type Service struct {
	schema *Schema
	table  *symbols.Table
	memo   *cache.Memo
	logger *slog.Logger
}

// NewService creates a service over table. Clause sets are read through
// memo; a nil memo gets a private one.
func NewService(table *symbols.Table, memo *cache.Memo, logger *slog.Logger) (*Service, error) {
	s, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	if memo == nil {
		memo = cache.NewMemo(cache.Lower(table))
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{schema: s, table: table, memo: memo, logger: logger}, nil
}

// NewRequest builds a ClausesRequest message.
func (s *Service) NewRequest(item string, env bool) *dynamic.Message {
	req := dynamic.NewMessage(s.schema.Method.GetInputType())
	req.SetFieldByName("item", item)
	req.SetFieldByName("env", env)
	return req
}

// NewResponse returns an empty ClausesResponse message.
func (s *Service) NewResponse() *dynamic.Message {
	return dynamic.NewMessage(s.schema.Response)
}

// Handle answers one ProgramClauses request.
func (s *Service) Handle(ctx context.Context, req *dynamic.Message) (*dynamic.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	item, _ := req.GetFieldByName("item").(string)
	env, _ := req.GetFieldByName("env").(bool)
	s.logger.Info("program clauses", "item", item, "env", env)

	decl, ok := s.table.Lookup(item)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no declaration %q", item)
	}
	cs, err := s.clauses(decl, env)
	if err != nil {
		s.logger.Error("lowering failed", "item", item, "err", err)
		if errors.Is(err, typesystem.ErrInvariant) {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return nil, status.Error(codes.Unknown, err.Error())
	}
	return encodeResponse(s.schema, decl.Path, decl.Kind.String(), cs)
}

func (s *Service) clauses(decl *symbols.Decl, env bool) (clauses.Clauses, error) {
	if !env {
		return s.memo.ProgramClauses(decl.Def)
	}
	e, err := lowering.EnvironmentFor(s.table, decl.Def)
	if err != nil {
		return nil, err
	}
	return lowering.ProgramClausesForEnvWith(s.table, e, s.memo.Source())
}

// Register exposes svc on srv as ClauseService.
func Register(srv *grpc.Server, svc *Service) {
	md := svc.schema.Method
	sd := &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				h := srv.(*Service)
				in := dynamic.NewMessage(md.GetInputType())
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return h.Handle(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod}
				return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
					return h.Handle(ctx, req.(*dynamic.Message))
				})
			},
		}},
		Streams:  []grpc.StreamDesc{},
		Metadata: svc.schema.File.GetName(),
	}
	srv.RegisterService(sd, svc)
}

func encodeResponse(s *Schema, item, kind string, cs clauses.Clauses) (*dynamic.Message, error) {
	resp := dynamic.NewMessage(s.Response)
	if err := resp.TrySetFieldByName("item", item); err != nil {
		return nil, err
	}
	if err := resp.TrySetFieldByName("kind", kind); err != nil {
		return nil, err
	}
	for _, c := range cs {
		msg, err := encodeClause(s.Clause, c)
		if err != nil {
			return nil, err
		}
		if err := resp.TryAddRepeatedFieldByName("clauses", msg); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func encodeClause(md *desc.MessageDescriptor, c clauses.Clause) (*dynamic.Message, error) {
	msg := dynamic.NewMessage(md)
	hyps := make([]string, len(c.Value.Hypotheses))
	for i, h := range c.Value.Hypotheses {
		hyps[i] = h.String()
	}
	vars := make([]string, len(c.Vars))
	for i, v := range c.Vars {
		vars[i] = v.String()
	}
	fields := []struct {
		name  string
		value interface{}
	}{
		{"text", c.String()},
		{"category", c.Value.Category.String()},
		{"goal", c.Value.Goal.String()},
		{"hypotheses", hyps},
		{"vars", vars},
	}
	for _, f := range fields {
		if err := msg.TrySetFieldByName(f.name, f.value); err != nil {
			return nil, fmt.Errorf("encoding clause field %s: %w", f.name, err)
		}
	}
	return msg, nil
}

// EncodeBundle serializes the clause sets of items as a Bundle message.
func EncodeBundle(items ...Item) ([]byte, error) {
	s, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	bundle := dynamic.NewMessage(s.Bundle)
	for _, it := range items {
		resp, err := encodeResponse(s, it.Path, it.Kind, it.Clauses)
		if err != nil {
			return nil, err
		}
		if err := bundle.TryAddRepeatedFieldByName("items", resp); err != nil {
			return nil, err
		}
	}
	return bundle.Marshal()
}

// Item is one entry of a bundle.
type Item struct {
	Path    string
	Kind    string
	Clauses clauses.Clauses
}

// DecodedClause is the wire form of a clause read back from a message.
type DecodedClause struct {
	Text       string
	Category   string
	Goal       string
	Hypotheses []string
	Vars       []string
}

// DecodeResponse reads a ClausesResponse message.
func DecodeResponse(resp *dynamic.Message) (item string, out []DecodedClause) {
	item, _ = resp.GetFieldByName("item").(string)
	list, _ := resp.GetFieldByName("clauses").([]interface{})
	for _, v := range list {
		msg, ok := v.(*dynamic.Message)
		if !ok {
			continue
		}
		var dc DecodedClause
		dc.Text, _ = msg.GetFieldByName("text").(string)
		dc.Category, _ = msg.GetFieldByName("category").(string)
		dc.Goal, _ = msg.GetFieldByName("goal").(string)
		dc.Hypotheses = stringList(msg.GetFieldByName("hypotheses"))
		dc.Vars = stringList(msg.GetFieldByName("vars"))
		out = append(out, dc)
	}
	return item, out
}

// DecodeBundle reads a bundle produced by EncodeBundle.
func DecodeBundle(data []byte) (map[string][]DecodedClause, error) {
	s, err := LoadSchema()
	if err != nil {
		return nil, err
	}
	bundle := dynamic.NewMessage(s.Bundle)
	if err := bundle.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	out := make(map[string][]DecodedClause)
	items, _ := bundle.GetFieldByName("items").([]interface{})
	for _, v := range items {
		msg, ok := v.(*dynamic.Message)
		if !ok {
			continue
		}
		item, cs := DecodeResponse(msg)
		out[item] = cs
	}
	return out, nil
}

func stringList(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, x := range list {
		if s, ok := x.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
