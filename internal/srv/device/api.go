package device

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/plieven/OpenDTU/apimodel"
	"github.com/plieven/OpenDTU/internal/srv/config"
	"github.com/plieven/OpenDTU/internal/srv/event"
	"github.com/plieven/OpenDTU/internal/tool"
	"github.com/sirupsen/logrus"
)

// Api exposes live data and the display reconfiguration endpoints.
// Reconfiguration requests round-trip through the event loop so all
// mutation happens in one place.
type Api struct {
	lock         sync.RWMutex
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config    *config.ServerConfig
	datastore *Datastore
}

func NewApi(config *config.ServerConfig, datastore *Datastore) *Api {
	api := Api{
		config:       config,
		datastore:    datastore,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				apiKey := r.Header.Get("x-api-key")
				if apiKey != config.ServerParam.ApiParam.ApiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s", r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")

	api.apiRouter.HandleFunc("/livedata",
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			err := json.NewEncoder(w).Encode(api.datastore.LiveData())
			if err != nil {
				logrus.Warnf("Unable to encode live data: %v", err)
			}
		}).Methods("GET")

	api.apiRouter.HandleFunc("/display/locale/{locale}",
		func(w http.ResponseWriter, r *http.Request) {
			locale, ok := mux.Vars(r)["locale"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.forward(w, r, event.ApiEventSetLocaleData{Locale: locale})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/rotation/{rotation}",
		func(w http.ResponseWriter, r *http.Request) {
			rotation, err := api.intVar(r, "rotation")
			if err != nil || rotation < 0 || rotation > 3 {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.forward(w, r, event.ApiEventSetRotationData{Rotation: rotation})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/diagram/{mode}",
		func(w http.ResponseWriter, r *http.Request) {
			mode, err := api.intVar(r, "mode")
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.forward(w, r, event.ApiEventSetDiagramModeData{Mode: mode})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/contrast/{contrast}",
		func(w http.ResponseWriter, r *http.Request) {
			contrast, err := api.intVar(r, "contrast")
			if err != nil || contrast < 0 || contrast > 100 {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.forward(w, r, event.ApiEventSetContrastData{Contrast: contrast})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/display/power/{state}",
		func(w http.ResponseWriter, r *http.Request) {
			state, ok := mux.Vars(r)["state"]
			if !ok || (state != "on" && state != "off") {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.forward(w, r, event.ApiEventSetPowerData{On: state == "on"})
		}).Methods("POST")

	api.apiRouter.HandleFunc("/inverter/{serial}",
		func(w http.ResponseWriter, r *http.Request) {
			serial, ok := mux.Vars(r)["serial"]
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			var metrics apimodel.InverterMetrics
			if err := json.NewDecoder(r.Body).Decode(&metrics); err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.forward(w, r, event.ApiEventInverterPushData{Serial: serial, Metrics: metrics})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.SslPort, 10),
		Handler:      handlers.CompressHandler(handlers.CORS(originsOk, headersOk, methodsOk)(api.router)),
		ReadTimeout:  time.Second * 240,
		WriteTimeout: time.Second * 240,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

func (d *Api) intVar(r *http.Request, name string) (int, error) {
	value, err := strconv.ParseInt(mux.Vars(r)[name], 10, 0)
	return int(value), err
}

// forward hands the request to the event loop and waits for the
// outcome.
func (d *Api) forward(w http.ResponseWriter, r *http.Request, data interface{}) {
	result := make(chan error)
	d.eventChannel <- event.ApiEvent{Result: result, Data: data}
	err := <-result
	if err == nil {
		ErrorStatusAction(w, r, http.StatusOK)
	} else {
		GlobalErrorAction(w, err.Error(), http.StatusForbidden)
	}
}

func (d *Api) Start() {
	logrus.Infof("Start api device")

	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedCertFilename(), err)
	}

	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		logrus.Fatalf("Unable to access %s: %v\n", d.selfSignedKeyFilename(), err)
	}

	if !existServerCert || !existServerKey {
		logrus.Info("Missing cert and key files, trying to generate them...")
		err = tool.GenerateTlsCertificate(
			"OpenDTU",
			"OpenDTU Server",
			d.selfSignedKeyFilename(),
			d.selfSignedCertFilename(),
			[]string{})
		if err != nil {
			logrus.Fatalf("Unable to generate cert and key files : %v\n", err)
		}
		logrus.Info("Self-signed cert and key files generated")
	}

	// Launch https server
	go func() {
		err := d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
		if err != nil && err != http.ErrServerClosed {
			logrus.Error(err)
		}
	}()
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	d.server.Shutdown(context.Background())
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	errorMessage := &apimodel.ErrorMessage{
		ErrStatusCode: status,
		ErrMessage:    title,
	}

	if title == "" {
		switch status {
		case http.StatusOK:
			errorMessage.ErrMessage = "Ok"
		case http.StatusNotFound:
			errorMessage.ErrMessage = "Page not found"
		case http.StatusMethodNotAllowed:
			errorMessage.ErrMessage = "Method not allowed"
		case http.StatusForbidden:
			errorMessage.ErrMessage = "Forbidden"
		case http.StatusServiceUnavailable:
			errorMessage.ErrMessage = "Service unavailable"
		case http.StatusBadRequest:
			errorMessage.ErrMessage = "Bad request"
		default:
			errorMessage.ErrMessage = "Internal error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorMessage)
}
