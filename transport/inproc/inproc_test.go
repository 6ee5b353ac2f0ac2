package inproc

import (
	"context"
	"testing"

	"github.com/flyingrobots/ninelives"
)

func TestTransportDispatchesDirectlyThroughRouter(t *testing.T) {
	router := ninelives.NewRouter(nil, nil, ninelives.RealClock{}, nil)
	transport := New(router)

	result := transport.Dispatch(context.Background(), ninelives.CommandEnvelope{Command: "health"})
	if result.Kind != ninelives.ResultValue {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestTransportSurfacesRouterErrors(t *testing.T) {
	router := ninelives.NewRouter(nil, nil, ninelives.RealClock{}, nil)
	transport := New(router)

	result := transport.Dispatch(context.Background(), ninelives.CommandEnvelope{Command: "nope"})
	if result.Kind != ninelives.ResultError || result.Error.Kind != ninelives.ErrNotFound {
		t.Fatalf("unexpected result: %+v", result)
	}
}
