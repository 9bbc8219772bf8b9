package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	"github.com/wilforlan/suncture-feedback-board/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loaderFunc func(ctx context.Context) error

func (f loaderFunc) Load(ctx context.Context) error { return f(ctx) }

func TestRefresherRoutes_AbsentByDefault(t *testing.T) {
	d := newTestRouter()

	w := d.do(http.MethodGet, "/v1/board/refresher", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefresherRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loads := make(chan struct{}, 4)
	refresher := worker.NewRefresher(loaderFunc(func(context.Context) error {
		loads <- struct{}{}
		return nil
	}), time.Hour, observability.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go refresher.Start(ctx)

	d := newTestRouter()
	d.router = NewRouter(testConfig(), d.feedback, d.board, d.leaderboard, observability.NewNopLogger(), WithBoardRefresher(refresher))

	w := d.do(http.MethodPost, "/v1/board/refresher/pause", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)["status"].(map[string]interface{})
	assert.Equal(t, true, status["is_paused"])

	w = d.do(http.MethodPost, "/v1/board/refresher/run", nil, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-loads:
	case <-time.After(time.Second):
		t.Fatal("manual refresh did not run")
	}

	require.Eventually(t, func() bool { return refresher.GetStatus().Runs == 1 }, time.Second, time.Millisecond)

	w = d.do(http.MethodGet, "/v1/board/refresher", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["history"], 1)

	w = d.do(http.MethodPost, "/v1/board/refresher/resume", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	status = decode(t, w)["status"].(map[string]interface{})
	assert.Equal(t, false, status["is_paused"])
}
