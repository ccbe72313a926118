package network

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/emeltv/emel/constant"
	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

// ErrNotPlaylist is returned when the origin answers with something other than an HLS playlist.
var ErrNotPlaylist = errors.New("response is not an HLS playlist")

// Manifest summarizes an HLS playlist.
type Manifest struct {
	// Variants is the number of variant streams in a master playlist; 0 for a media playlist.
	Variants int

	// Segments is the number of media segments in a media playlist.
	Segments int

	// Live is false once the playlist carries an end marker.
	Live bool
}

// FetchManifest fetches the playlist at url and summarizes it.
func FetchManifest(ctx context.Context, url string) (Manifest, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Manifest{}, err
	}
	req.Header.Set("User-Agent", constant.Emel+"/"+constant.Version)

	res, err := Client.Do(req)
	if err != nil {
		return Manifest{}, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Manifest{}, fmt.Errorf("unexpected status %s", res.Status)
	}

	return parseManifest(res.Body)
}

func parseManifest(r io.Reader) (Manifest, error) {
	scanner := bufio.NewScanner(r)

	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "#EXTM3U" {
		if err := scanner.Err(); err != nil {
			return Manifest{}, err
		}
		return Manifest{}, ErrNotPlaylist
	}

	m := Manifest{Live: true}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#EXT-X-STREAM-INF"):
			m.Variants++
		case strings.HasPrefix(line, "#EXTINF"):
			m.Segments++
		case line == "#EXT-X-ENDLIST":
			m.Live = false
		}
	}

	return m, scanner.Err()
}
