package detect

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-crosscount/postprocess"
	"gocv.io/x/gocv"
)

// detectorServer answers every binary frame with a fixed detection list
func detectorServer(t *testing.T, reply string) *httptest.Server {
	upgrader := websocket.Upgrader{}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage || len(msg) == 0 {
				t.Errorf("expected a binary jpeg frame")
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
				return
			}
		}
	}))
}

func TestRemoteDetect(t *testing.T) {
	srv := detectorServer(t, `[{"label": "car", "confidence": 0.8, "box": [10, 10, 60, 40]},
		{"class": 1, "confidence": 0.4, "box": [100, 100, 120, 130]},
		{"label": "car", "box": [1, 2, 3]}]`)
	defer srv.Close()

	r := NewRemote("ws"+strings.TrimPrefix(srv.URL, "http"), testLabels)
	defer r.Close()

	img := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer img.Close()

	dets, err := r.Detect(img)
	require.NoError(t, err)
	require.Len(t, dets, 2)
	assert.Equal(t, 2, dets[0].Class)
	assert.Equal(t, postprocess.BoxRect{Left: 10, Top: 10, Right: 60, Bottom: 40}, dets[0].Box)
	assert.Equal(t, 1, dets[1].Class)

	// connection is reused
	dets, err = r.Detect(img)
	require.NoError(t, err)
	assert.Len(t, dets, 2)
}

func TestRemoteUnavailable(t *testing.T) {
	srv := detectorServer(t, `[]`)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	r := NewRemote(url, testLabels)
	defer r.Close()

	img := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC3)
	defer img.Close()

	_, err := r.Detect(img)
	assert.Error(t, err)
}
