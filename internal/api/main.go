package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/olahol/melody"
	"github.com/microstitch/core/api/config"
	"github.com/microstitch/core/api/dbCollections"
	"github.com/microstitch/core/api/endpoints"
	"github.com/microstitch/core/api/job"
	"github.com/microstitch/core/api/permission"
	apiRouter "github.com/microstitch/core/api/router"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/api/ws"
	"github.com/microstitch/core/core/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// This was added for a profiler to be able to connect, otherwise uses no reasources really
	go func() {
		http.ListenAndServe(":1234", nil)
	}()
	// This is for prometheus
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		http.ListenAndServe(":2112", nil)
	}()

	rand.Seed(time.Now().UnixNano())

	cfg := loadConfig()
	svcs := services.InitAPIServices(cfg)

	dbCollections.InitCollections(svcs.MongoDB, svcs.Log)

	////////////////////////////////////////////////////
	// Set up WebSocket server
	m := melody.New()
	wsHandler := ws.MakeWSHandler(m, &svcs)

	// Create event handlers for websocket
	m.HandleConnect(wsHandler.HandleConnect)
	m.HandleDisconnect(wsHandler.HandleDisconnect)
	m.HandleMessage(wsHandler.HandleMessage)

	// Job status changes get pushed out over the socket. Has to be in place
	// before the router copies svcs into its handlers
	notifier := ws.WSJobNotifier{Melody: m, Log: svcs.Log}
	svcs.Notifier = notifier

	////////////////////////////////////////////////////
	// Set up HTTP server

	router := endpoints.MakeRouter(svcs)

	// WS initiation - token retrieval to be allowed to create socket. The
	// socket only ever carries stitch job updates, so gate it the same way
	// as reading jobs
	router.AddGenericHandler("/ws-connect", apiRouter.MakeMethodPermission("GET", permission.PermReadStitchJobs), wsHandler.HandleBeginWSConnection)

	// Actual web socket creation, expects the HTTP upgrade header
	router.AddPublicHandler("/ws", "GET", wsHandler.HandleSocketCreation)

	// Jobs written straight to the annotations bucket trigger stitches with
	// no API call involved, watch for those so their updates go out too
	go job.ListenForExternalTriggeredJobs("auto-stitch", notifier.NotifyJobUpdate, svcs.MongoDB, svcs.Log)

	// Setup middleware
	routePermissions := router.GetPermissions()
	printRoutePermissions(routePermissions)

	authware := endpoints.AuthMiddleWareData{
		RoutePermissionsRequired: routePermissions,
		JWTValidator:             svcs.JWTReader.GetValidator(),
		Logger:                   svcs.Log,
	}
	logware := endpoints.LoggerMiddleware{
		APIServices: &svcs,
	}

	promware := endpoints.PrometheusMiddleware

	router.Router.Use(authware.Middleware, logware.Middleware, promware)

	// Now also log this to the world...
	svcs.Log.Infof("API version \"%v\" started...", services.ApiVersion)

	log.Fatal(
		http.ListenAndServe(":8080",
			handlers.CORS(
				handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"}),
				handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"}),
				handlers.AllowedOrigins([]string{"*"}))(router.Router)))
}

func loadConfig() config.APIConfig {
	cfg, err := config.Init()
	if err != nil {
		log.Fatalf("Something went wrong with API config. Error: %v\n", err)
	}

	// Show the config
	cfgJSON, err := json.MarshalIndent(cfg, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		log.Fatalf("Error trying to display config\n")
	}

	log.Println(string(cfgJSON))
	return cfg
}
