package qdrant

import (
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
)

func toPoint(rec domain.IndexRecord) *pb.PointStruct {
	payload := make(map[string]*pb.Value, len(rec.Metadata)+1)
	for k, v := range rec.Metadata {
		payload[k] = toValue(v)
	}
	payload[payloadID] = toValue(rec.ID)

	return &pb.PointStruct{
		Id: &pb.PointId{
			PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(rec.ID)},
		},
		Vectors: &pb.Vectors{
			VectorsOptions: &pb.Vectors_Vector{
				Vector: &pb.Vector{Data: rec.Vector},
			},
		},
		Payload: payload,
	}
}

func toValue(v any) *pb.Value {
	switch tv := v.(type) {
	case nil:
		return &pb.Value{Kind: &pb.Value_NullValue{}}
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case *string:
		if tv == nil {
			return &pb.Value{Kind: &pb.Value_NullValue{}}
		}
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: *tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float32:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: float64(tv)}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case []string:
		vals := make([]*pb.Value, len(tv))
		for i, s := range tv {
			vals[i] = toValue(s)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	case []any:
		vals := make([]*pb.Value, len(tv))
		for i, s := range tv {
			vals[i] = toValue(s)
		}
		return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: vals}}}
	case map[string]any:
		fields := make(map[string]*pb.Value, len(tv))
		for k, s := range tv {
			fields[k] = toValue(s)
		}
		return &pb.Value{Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: fields}}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func fromPayload(payload map[string]*pb.Value) map[string]any {
	md := make(map[string]any, len(payload))
	for k, v := range payload {
		md[k] = fromValue(v)
	}
	return md
}

// fromValue mirrors JSON decoding: numbers become float64, lists []any.
func fromValue(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_IntegerValue:
		return float64(k.IntegerValue)
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_ListValue:
		out := make([]any, len(k.ListValue.GetValues()))
		for i, e := range k.ListValue.GetValues() {
			out[i] = fromValue(e)
		}
		return out
	case *pb.Value_StructValue:
		return fromPayload(k.StructValue.GetFields())
	default:
		return nil
	}
}

func toFilter(f filter.Filter) *pb.Filter {
	if f.IsEmpty() {
		return nil
	}
	must := make([]*pb.Condition, 0, len(f.Conditions()))
	for _, c := range f.Conditions() {
		fc := &pb.FieldCondition{Key: c.Key()}
		switch c.Kind() {
		case filter.KindBool:
			fc.Match = &pb.Match{MatchValue: &pb.Match_Boolean{Boolean: c.Bool()}}
		case filter.KindMatch:
			fc.Match = &pb.Match{MatchValue: &pb.Match_Keyword{Keyword: c.Match()}}
		case filter.KindRange:
			r := c.Range()
			fc.Range = &pb.Range{Gt: r.GT(), Gte: r.GTE(), Lt: r.LT(), Lte: r.LTE()}
		}
		must = append(must, &pb.Condition{ConditionOneOf: &pb.Condition_Field{Field: fc}})
	}
	return &pb.Filter{Must: must}
}
