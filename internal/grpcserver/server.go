// Package grpcserver exposes the posting service over gRPC for the Gateway.
//
// It delegates all business logic to posting.Service and handles only the
// gRPC transport concerns: metadata extraction, error mapping and the
// standard health service, which reflects the state of Postgres and Redis.
package grpcserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"jobmate/posting-service/internal/entitlement"
	"jobmate/posting-service/internal/logging"
	"jobmate/posting-service/internal/posting"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "jobmate.posting.v1.PostingService"

// Check reports the health of one dependency.
type Check func(ctx context.Context) error

// ─── Messages ────────────────────────────────────────────────────────────────

type GetPostingRequest struct {
	ID string `json:"id"`
}

type ListPostingsRequest struct {
	Status string `json:"status"`
}

type ListPostingsResponse struct {
	Postings []posting.Posting `json:"postings"`
}

type ApplyActionRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

type EntitlementRequest struct{}

type EntitlementResponse struct {
	entitlement.Snapshot
	CanPost bool `json:"canPost"`
}

// ─── Server ──────────────────────────────────────────────────────────────────

// Server implements the posting RPCs and the health service.
type Server struct {
	svc    *posting.Service
	health *health.Server
	checks map[string]Check
	logger *slog.Logger
}

// NewServer constructs a Server backed by svc. checks are keyed by
// dependency name, e.g. "postgres".
func NewServer(svc *posting.Service, checks map[string]Check) *Server {
	return &Server{
		svc:    svc,
		health: health.NewServer(),
		checks: checks,
		logger: logging.WithModule("grpc"),
	}
}

// Register mounts the posting and health services on gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&serviceDesc, s)
	healthpb.RegisterHealthServer(gs, s.health)
}

// WatchHealth re-runs the dependency checks every interval until ctx ends.
func (s *Server) WatchHealth(ctx context.Context, interval time.Duration) {
	s.CheckHealth(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			return
		case <-t.C:
			s.CheckHealth(ctx)
		}
	}
}

// CheckHealth runs every check once. The overall status ("") and the
// posting service are serving only when all checks pass.
func (s *Server) CheckHealth(ctx context.Context) {
	overall := healthpb.HealthCheckResponse_SERVING
	for name, check := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := check(cctx)
		cancel()

		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			s.logger.Warn("health check failed", "dependency", name, "err", err)
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
		}
		s.health.SetServingStatus(name, st)
	}
	s.health.SetServingStatus("", overall)
	s.health.SetServingStatus(ServiceName, overall)
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// GetPosting returns one posting of the calling company.
func (s *Server) GetPosting(ctx context.Context, req *GetPostingRequest) (*posting.Posting, error) {
	companyID, err := companyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.svc.Get(ctx, companyID, req.ID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return p, nil
}

// ListPostings returns the calling company's postings.
func (s *Server) ListPostings(ctx context.Context, req *ListPostingsRequest) (*ListPostingsResponse, error) {
	companyID, err := companyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.svc.List(ctx, companyID, req.Status)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &ListPostingsResponse{Postings: list}, nil
}

// ApplyAction runs a lifecycle action (publish, pause, resume, archive, delete).
func (s *Server) ApplyAction(ctx context.Context, req *ApplyActionRequest) (*posting.Posting, error) {
	companyID, err := companyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	action, err := posting.ParseAction(req.Action)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	p, err := s.svc.Apply(ctx, companyID, req.ID, action)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return p, nil
}

// GetEntitlement returns the calling company's entitlement snapshot.
func (s *Server) GetEntitlement(ctx context.Context, _ *EntitlementRequest) (*EntitlementResponse, error) {
	companyID, err := companyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := s.svc.Entitlement(ctx, companyID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &EntitlementResponse{Snapshot: snap, CanPost: snap.CanPost()}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// companyIDFromCtx extracts the x-company-id value forwarded by the Gateway
// via gRPC metadata.
func companyIDFromCtx(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get("x-company-id")
	if len(vals) == 0 || vals[0] == "" {
		return "", status.Error(codes.Unauthenticated, "missing x-company-id metadata")
	}
	return vals[0], nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	var ve *posting.ValidationError
	switch {
	case errors.Is(err, posting.ErrNotFound), errors.Is(err, entitlement.ErrUnknownCompany):
		return status.Error(codes.NotFound, err.Error())
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case entitlement.IsDenial(err):
		return status.Error(codes.ResourceExhausted, err.Error())
	case posting.IsConflictError(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	slog.Error("rpc failed", "err", err)
	return status.Error(codes.Internal, "internal server error")
}
