package db

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
)

// ScoreField is the alias FT.SEARCH gives the KNN distance in each hit.
const ScoreField = "__vector_score"

// KNNQuery asks for the K nearest hashes to Vector that match Filter.
type KNNQuery struct {
	Index       string
	VectorField string // query alias of the vector field, "vector" when empty
	Vector      []float32
	K           int
	Filter      filter.Filter
	Return      []string // extra hash fields to load; nil loads every field
}

// Hit is one matched hash. Score is cosine similarity, 1 - distance.
type Hit struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchArgs renders the FT.SEARCH arguments that follow the command name.
func (q KNNQuery) SearchArgs() ([]string, error) {
	switch {
	case q.Index == "":
		return nil, errors.New("index name is required")
	case len(q.Vector) == 0:
		return nil, errors.New("query vector is required")
	case q.K <= 0:
		return nil, errors.New("k must be positive")
	}

	args := []string{q.Index, q.expression()}
	if len(q.Return) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.Return)+1), ScoreField)
		args = append(args, q.Return...)
	}
	return append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", EncodeVector(q.Vector),
		"DIALECT", "2",
	), nil
}

func (q KNNQuery) expression() string {
	field := q.VectorField
	if field == "" {
		field = "vector"
	}
	knn := fmt.Sprintf("[KNN %d @%s $BLOB]", q.K, field)
	if pre := FilterExpr(q.Filter); pre != "" {
		return "(" + pre + ")=>" + knn
	}
	return "*=>" + knn
}

// FilterExpr translates f into a query pre-filter. Conditions are ANDed; empty means no constraint.
func FilterExpr(f filter.Filter) string {
	conds := f.Conditions()
	if len(conds) == 0 {
		return ""
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		switch c.Kind() {
		case filter.KindBool:
			parts = append(parts, tagExpr(c.Key(), strconv.FormatBool(c.Bool())))
		case filter.KindMatch:
			parts = append(parts, tagExpr(c.Key(), c.Match()))
		case filter.KindRange:
			parts = append(parts, rangeExpr(c.Key(), c.Range()))
		}
	}
	return strings.Join(parts, " ")
}

func tagExpr(key, value string) string {
	return "@" + key + ":{" + tagEscaper.Replace(value) + "}"
}

func rangeExpr(key string, r filter.Range) string {
	lo, hi := "-inf", "+inf"
	switch {
	case r.GT() != nil:
		lo = "(" + formatBound(*r.GT())
	case r.GTE() != nil:
		lo = formatBound(*r.GTE())
	}
	switch {
	case r.LT() != nil:
		hi = "(" + formatBound(*r.LT())
	case r.LTE() != nil:
		hi = formatBound(*r.LTE())
	}
	return "@" + key + ":[" + lo + " " + hi + "]"
}

func formatBound(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Punctuation that must be escaped inside a TAG query value.
var tagEscaper = func() *strings.Replacer {
	const special = ",.<>{}\"':;!@#$%^&*()-+=~| "
	pairs := make([]string, 0, 2*len(special))
	for _, r := range special {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// EncodeVector packs v as little-endian FLOAT32, the layout HNSW fields store.
func EncodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector reverses EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes is not FLOAT32 aligned", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
