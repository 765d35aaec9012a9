package pathtransport

import (
	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/internal/path"
	"github.com/johnny-morrice/pathtransport/internal/tree"
	"github.com/johnny-morrice/pathtransport/log"
)

// channel is the store path of the prefix, a thing or a band of a thing.
func (transport *PathTransport) channel(id, band string) string {
	parts := path.Append(transport.prefixParts)

	if id != "" {
		parts = append(parts, path.Encode(id))

		if band != "" {
			parts = append(parts, path.Encode(band))
		}
	}

	return path.Join(parts)
}

// classify turns a child change into records, by how far below the prefix
// the changed child lies.
func (transport *PathTransport) classify(snapshot api.Snapshot, handler func(api.Record)) {
	segments := path.Split(snapshot.Path)
	depth := len(transport.prefixParts)
	diff := len(segments) - depth

	switch {
	case diff > 2:
		handler(api.Record{
			ID:   path.MustDecode(segments[depth]),
			Band: path.MustDecode(segments[depth+1]),
			Deep: true,
		})
	case diff == 2:
		handler(api.Record{
			ID:    path.MustDecode(segments[depth]),
			Band:  path.MustDecode(segments[depth+1]),
			Value: bandValue(snapshot.Path, snapshot.Value),
		})
	case diff == 1:
		id := path.MustDecode(segments[depth])
		bands, _ := snapshot.Value.(map[string]interface{})

		for _, band := range tree.Children(bands) {
			handler(api.Record{
				ID:    id,
				Band:  path.MustDecode(band),
				Value: bandValue(path.Join(path.Append(segments, band)), bands[band]),
			})
		}
	default:
		log.Debug("Ignoring change at '%s' above prefix", snapshot.Path)
	}
}

// bandValue decodes a stored band.  A band holding a scalar, which only a
// direct store write can produce, reads as an empty Value.
func bandValue(bandPath string, stored interface{}) api.Value {
	if _, isMap := stored.(map[string]interface{}); stored != nil && !isMap {
		log.Warn("Band at '%s' is not a mapping, reading it as empty: %v", bandPath, stored)
	}

	return api.Value(path.PackIn(stored))
}
