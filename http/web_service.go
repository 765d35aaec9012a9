package http

import (
	"encoding/json"
	gohttp "net/http"
	"net/url"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/johnny-morrice/pathtransport/api"
	"github.com/johnny-morrice/pathtransport/log"
)

const THINGS_ROOT = "/things"
const UPDATES_ROOT = "/updates"

type WebServiceOptions struct {
	Transport api.Transport
}

// WebService exposes a transport as REST, with NDJSON streams for List and
// Updated.
type WebService struct {
	WebServiceOptions
	stopch    chan struct{}
	closeOnce sync.Once
}

func MakeWebService(options WebServiceOptions) *WebService {
	return &WebService{
		WebServiceOptions: options,
		stopch:            make(chan struct{}),
	}
}

// Close ends every open stream.
func (service *WebService) Close() {
	service.closeOnce.Do(func() {
		close(service.stopch)
	})
}

func (service *WebService) Handler() gohttp.Handler {
	root := mux.NewRouter()
	root.UseEncodedPath()

	root.HandleFunc(THINGS_ROOT, service.listThings).Methods(gohttp.MethodGet)
	root.HandleFunc(THINGS_ROOT+"/{id}", service.remove).Methods(gohttp.MethodDelete)

	root.HandleFunc(THINGS_ROOT+"/{id}/{band}", service.getBand).Methods(gohttp.MethodGet)
	root.HandleFunc(THINGS_ROOT+"/{id}/{band}", service.putBand).Methods(gohttp.MethodPut)
	root.HandleFunc(THINGS_ROOT+"/{id}/{band}", service.remove).Methods(gohttp.MethodDelete)

	root.HandleFunc(UPDATES_ROOT, service.updated).Methods(gohttp.MethodGet)
	root.HandleFunc(UPDATES_ROOT+"/{id}", service.updated).Methods(gohttp.MethodGet)
	root.HandleFunc(UPDATES_ROOT+"/{id}/{band}", service.updated).Methods(gohttp.MethodGet)

	return root
}

func (service *WebService) getBand(rw gohttp.ResponseWriter, req *gohttp.Request) {
	log.Info("WebService getBand at: %v", req.RequestURI)

	id, band, err := recordVars(req)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	result, err := service.Transport.Get(id, band)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	select {
	case record := <-result:
		sendJSON(rw, gohttp.StatusOK, record.Value)
	case <-req.Context().Done():
		log.Info("Client left before Get completed")
	case <-service.stopch:
		invalidRequest(rw, api.ErrClosed)
	}
}

func (service *WebService) putBand(rw gohttp.ResponseWriter, req *gohttp.Request) {
	log.Info("WebService putBand at: %v", req.RequestURI)

	id, band, err := recordVars(req)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	value := api.Value{}
	err = json.NewDecoder(req.Body).Decode(&value)

	if err != nil {
		invalidRequest(rw, errors.Wrap(api.ErrInvalidArgument, err.Error()))
		return
	}

	err = service.Transport.Update(id, band, value)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	rw.WriteHeader(gohttp.StatusAccepted)
}

func (service *WebService) remove(rw gohttp.ResponseWriter, req *gohttp.Request) {
	log.Info("WebService remove at: %v", req.RequestURI)

	id, band, err := recordVars(req)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	err = service.Transport.Remove(id, band)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	rw.WriteHeader(gohttp.StatusAccepted)
}

func (service *WebService) listThings(rw gohttp.ResponseWriter, req *gohttp.Request) {
	log.Info("WebService listThings at: %v", req.RequestURI)

	items := make(chan interface{}, __STREAM_BUFFER_SIZE)
	done := make(chan struct{})
	defer close(done)

	sub, err := service.Transport.List(func(item api.ListItem) {
		select {
		case items <- item:
		case <-done:
		}
	})

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	defer sub.Close()
	service.stream(rw, req, items)
}

func (service *WebService) updated(rw gohttp.ResponseWriter, req *gohttp.Request) {
	log.Info("WebService updated at: %v", req.RequestURI)

	id, band, err := recordVars(req)

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	records := make(chan interface{}, __STREAM_BUFFER_SIZE)
	done := make(chan struct{})
	defer close(done)

	scope := api.Scope{ID: id, Band: band}
	sub, err := service.Transport.Updated(scope, func(record api.Record) {
		select {
		case records <- record:
		case <-done:
		}
	})

	if err != nil {
		invalidRequest(rw, err)
		return
	}

	defer sub.Close()
	service.stream(rw, req, records)
}

// stream writes one JSON document per line until the client leaves or the
// service closes.
func (service *WebService) stream(rw gohttp.ResponseWriter, req *gohttp.Request, messages <-chan interface{}) {
	rw.Header().Set(CONTENT_TYPE, MIME_NDJSON)
	rw.WriteHeader(gohttp.StatusOK)

	flusher, canFlush := rw.(gohttp.Flusher)
	if canFlush {
		flusher.Flush()
	}

	encoder := json.NewEncoder(rw)

	for {
		select {
		case message := <-messages:
			err := encoder.Encode(message)

			if err != nil {
				log.Info("Stream ended: %v", err)
				return
			}

			if canFlush {
				flusher.Flush()
			}
		case <-req.Context().Done():
			log.Info("Stream client left")
			return
		case <-service.stopch:
			return
		}
	}
}

func recordVars(req *gohttp.Request) (string, string, error) {
	vars := mux.Vars(req)

	id, err := url.PathUnescape(vars["id"])

	if err != nil {
		return "", "", errors.Wrap(api.ErrInvalidArgument, err.Error())
	}

	band, err := url.PathUnescape(vars["band"])

	if err != nil {
		return "", "", errors.Wrap(api.ErrInvalidArgument, err.Error())
	}

	return id, band, nil
}

type errorMessage struct {
	Error string `json:"error"`
}

func invalidRequest(rw gohttp.ResponseWriter, err error) {
	status := gohttp.StatusInternalServerError

	switch errors.Cause(err) {
	case api.ErrInvalidArgument:
		status = gohttp.StatusBadRequest
	case api.ErrClosed:
		status = gohttp.StatusServiceUnavailable
	}

	log.Info("Invalid Request details: %v", err)
	sendJSON(rw, status, errorMessage{Error: err.Error()})
}

func sendJSON(rw gohttp.ResponseWriter, status int, message interface{}) {
	bs, err := json.Marshal(message)

	if err != nil {
		log.Error("Error encoding response: %v", err)
		rw.WriteHeader(gohttp.StatusInternalServerError)
		return
	}

	rw.Header().Set(CONTENT_TYPE, MIME_JSON)
	rw.WriteHeader(status)
	_, err = rw.Write(bs)

	if err != nil {
		log.Error("Error sending response: %v", err)
	}
}

const __STREAM_BUFFER_SIZE = 64
