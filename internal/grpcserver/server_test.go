package grpcserver_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"jobmate/posting-service/internal/grpcserver"
	"jobmate/posting-service/internal/posting"
	"jobmate/posting-service/internal/store"
)

const company = "company-1"

func dial(t *testing.T, srv *grpcserver.Server) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	srv.Register(gs)
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, req, resp any) error {
	return conn.Invoke(ctx, "/"+grpcserver.ServiceName+"/"+method, req, resp,
		grpc.CallContentSubtype(grpcserver.CodecName))
}

func TestPostingRPCs(t *testing.T) {
	mem := store.NewMemory(1)
	mem.SetCompany(company, 5, 3)
	svc := posting.NewService(mem, mem)
	created, err := svc.SaveDraft(context.Background(), company, "", posting.NewDraft())
	require.NoError(t, err)

	conn := dial(t, grpcserver.NewServer(svc, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("missing company metadata", func(t *testing.T) {
		var out posting.Posting
		err := call(ctx, conn, "GetPosting", &grpcserver.GetPostingRequest{ID: created.ID}, &out)
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	authed := metadata.AppendToOutgoingContext(ctx, "x-company-id", company)

	t.Run("get", func(t *testing.T) {
		var out posting.Posting
		require.NoError(t, call(authed, conn, "GetPosting", &grpcserver.GetPostingRequest{ID: created.ID}, &out))
		assert.Equal(t, created.ID, out.ID)
		assert.Equal(t, posting.StatusDraft, out.Status)
	})

	t.Run("not found", func(t *testing.T) {
		var out posting.Posting
		err := call(authed, conn, "GetPosting", &grpcserver.GetPostingRequest{ID: "nope"}, &out)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("publishing an incomplete draft", func(t *testing.T) {
		var out posting.Posting
		err := call(authed, conn, "ApplyAction", &grpcserver.ApplyActionRequest{ID: created.ID, Action: "publish"}, &out)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("forbidden transition", func(t *testing.T) {
		var out posting.Posting
		err := call(authed, conn, "ApplyAction", &grpcserver.ApplyActionRequest{ID: created.ID, Action: "pause"}, &out)
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("list and entitlement", func(t *testing.T) {
		var list grpcserver.ListPostingsResponse
		require.NoError(t, call(authed, conn, "ListPostings", &grpcserver.ListPostingsRequest{}, &list))
		assert.Len(t, list.Postings, 1)

		var ent grpcserver.EntitlementResponse
		require.NoError(t, call(authed, conn, "GetEntitlement", &grpcserver.EntitlementRequest{}, &ent))
		assert.True(t, ent.CanPost)
		assert.Equal(t, 5, ent.RemainingTokens)
	})
}

func TestHealthReflectsChecks(t *testing.T) {
	redisUp := true
	srv := grpcserver.NewServer(posting.NewService(store.NewMemory(1), store.NewMemory(1)), map[string]grpcserver.Check{
		"postgres": func(context.Context) error { return nil },
		"redis": func(context.Context) error {
			if redisUp {
				return nil
			}
			return errors.New("connection refused")
		},
	})
	conn := dial(t, srv)
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	srv.CheckHealth(ctx)
	res, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, res.Status)

	redisUp = false
	srv.CheckHealth(ctx)
	res, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "redis"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, res.Status)

	res, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, res.Status)
}
