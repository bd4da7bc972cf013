package graceful

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestDrainWaitsForInFlightRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	release := make(chan struct{})
	started := make(chan struct{})

	r := gin.New()
	r.Use(GinRequestTracker())
	r.GET("/slow", func(c *gin.Context) {
		close(started)
		<-release
		c.Status(http.StatusOK)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/slow", nil))
	}()
	<-started
	require.Equal(t, int64(1), InFlight())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, Drain(ctx), context.DeadlineExceeded)
	require.True(t, IsDraining())

	close(release)
	<-done

	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	require.NoError(t, Drain(ctx2))
	require.Zero(t, InFlight())
}
