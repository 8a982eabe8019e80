package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spacetwo/spacetwo-chat/internal/domain"
	"github.com/spacetwo/spacetwo-chat/internal/domain/filter"
)

// payloadID holds the caller's record ID; Qdrant point IDs must be UUIDs or integers.
const payloadID = "_id"

// pointNamespace seeds the deterministic point UUIDs.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("spacetwo:qdrant:point"))

// Repo implements usecase/search.Gateway on a Qdrant collection.
type Repo struct {
	points      points
	collections collections
	collection  string
	closer      func() error
}

// New creates a repository from existing gRPC clients.
func New(p points, c collections, collection string) *Repo {
	return &Repo{points: p, collections: c, collection: collection}
}

// Close closes the underlying connection when the repository owns one.
func (r *Repo) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

// Ping checks that the server answers.
func (r *Repo) Ping(ctx context.Context) error {
	if _, err := r.collections.List(ctx, &pb.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant ping: %w", err)
	}
	return nil
}

// EnsureIndex creates the collection with cosine distance if it does not exist
// and checks the vector size of an existing one.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) (domain.IndexHandle, error) {
	if dim <= 0 {
		return domain.IndexHandle{}, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidRequest)
	}
	handle := domain.IndexHandle{Name: r.collection, Dimension: dim, Driver: Driver}

	list, err := r.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return domain.IndexHandle{}, fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == r.collection {
			return handle, r.checkDim(ctx, dim)
		}
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return handle, r.checkDim(ctx, dim)
		}
		return domain.IndexHandle{}, fmt.Errorf("%w: collection %s: %v", domain.ErrIndexCreate, r.collection, err)
	}
	return handle, nil
}

func (r *Repo) checkDim(ctx context.Context, dim int) error {
	info, err := r.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: r.collection})
	if err != nil {
		return fmt.Errorf("get collection %s: %w", r.collection, err)
	}
	size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	if size != 0 && int(size) != dim {
		return fmt.Errorf("collection %s: %w", r.collection, &domain.DimensionError{Want: int(size), Got: dim})
	}
	return nil
}

// Upsert writes all records in one request and waits for it to be applied.
func (r *Repo) Upsert(ctx context.Context, h domain.IndexHandle, records []domain.IndexRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	pts := make([]*pb.PointStruct, len(records))
	for i, rec := range records {
		if err := rec.Validate(h.Dimension); err != nil {
			return 0, err
		}
		pts[i] = toPoint(rec)
	}

	wait := true
	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Wait:           &wait,
		Points:         pts,
	})
	if err != nil {
		return 0, &domain.BatchError{Index: r.collection, Count: len(records), Err: err}
	}
	return len(records), nil
}

// Query runs a filtered similarity search. Scores are cosine similarities as reported by Qdrant.
func (r *Repo) Query(
	ctx context.Context, h domain.IndexHandle, vec domain.Vector, topK int, f filter.Filter,
) ([]domain.SearchHit, error) {
	if err := vec.CheckDim(h.Dimension); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []domain.SearchHit{}, nil
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}

	req := &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vec,
		Limit:          uint64(topK),
		Filter:         toFilter(f),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	resp, err := r.points.Search(ctx, req)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, r.collection)
		}
		return nil, fmt.Errorf("search %s: %w", r.collection, err)
	}

	hits := make([]domain.SearchHit, 0, len(resp.GetResult()))
	for _, p := range resp.GetResult() {
		md := fromPayload(p.GetPayload())
		id, _ := md[payloadID].(string)
		delete(md, payloadID)
		if id == "" {
			id = p.GetId().GetUuid()
		}
		hits = append(hits, domain.SearchHit{ID: id, Score: float64(p.GetScore()), Metadata: md})
	}
	return hits, nil
}

// PointID returns the deterministic UUID used for a record ID.
func PointID(id string) string {
	return uuid.NewSHA1(pointNamespace, []byte(id)).String()
}
