package ws

import (
	"sync"

	"github.com/olahol/melody"
	"github.com/microstitch/core/api/handlers"
	"github.com/microstitch/core/api/services"
	"github.com/microstitch/core/core/errorwithstatus"
	"github.com/microstitch/core/core/jwtparser"
	"github.com/microstitch/core/core/utils"
)

// How long a token from /ws-connect stays redeemable. The UI turns around
// and opens the socket immediately, so this only needs to cover a slow link
const connectTokenExpirySec = 10

type connectToken struct {
	expiryUnixSec int64
	userInfo      jwtparser.JWTUserInfo
}

type WSHandler struct {
	mu            sync.Mutex
	connectTokens map[string]connectToken
	melody        *melody.Melody
	svcs          *services.APIServices
}

func MakeWSHandler(m *melody.Melody, svcs *services.APIServices) *WSHandler {
	ws := WSHandler{
		connectTokens: map[string]connectToken{},
		melody:        m,
		svcs:          svcs,
	}
	return &ws
}

type BeginWSConnectionResponse struct {
	ConnToken string `json:"connToken"`
}

// Must hold mu
func (ws *WSHandler) clearOldTokens(nowSec int64) {
	for token, usr := range ws.connectTokens {
		if usr.expiryUnixSec < nowSec {
			delete(ws.connectTokens, token)
		}
	}
}

// The JWT-authenticated side of the handshake. Issues a short-lived token
// the websocket upgrade request then presents as a query param, because
// the upgrade GET can't carry an Authorization header from a browser
func (ws *WSHandler) HandleBeginWSConnection(params handlers.ApiHandlerGenericParams) error {
	token := utils.RandomString(32)
	nowSec := ws.svcs.TimeStamper.GetTimeNowSec()

	ws.mu.Lock()

	// Clear out old ones, now is a good a time as any!
	ws.clearOldTokens(nowSec)

	ws.connectTokens[token] = connectToken{nowSec + connectTokenExpirySec, params.UserInfo}

	ws.mu.Unlock()

	handlers.ToJSON(params.Writer, &BeginWSConnectionResponse{ConnToken: token})
	return nil
}

func (ws *WSHandler) HandleSocketCreation(params handlers.ApiHandlerGenericPublicParams) error {
	err := ws.melody.HandleRequest(params.Writer, params.Request)
	if err != nil {
		return errorwithstatus.MakeBadRequestError(err)
	}
	return nil
}

// Redeems the token issued by HandleBeginWSConnection. Single use, and the
// user info it was issued for rides along on the session from here on
func (ws *WSHandler) redeemConnectToken(token string) (jwtparser.JWTUserInfo, bool) {
	nowSec := ws.svcs.TimeStamper.GetTimeNowSec()

	ws.mu.Lock()
	defer ws.mu.Unlock()

	conn, ok := ws.connectTokens[token]
	if !ok || conn.expiryUnixSec < nowSec {
		return jwtparser.JWTUserInfo{}, false
	}

	delete(ws.connectTokens, token)
	return conn.userInfo, true
}

func (ws *WSHandler) HandleConnect(s *melody.Session) {
	// NOTE: we get passed the initial GET websocket upgrade request here!
	// We require a token as a query param, which we validate against previous
	// calls to /ws-connect. If token isn't valid, we reject
	token, ok := s.Request.URL.Query()["token"]
	if !ok {
		s.CloseWithMsg([]byte("Missing token"))
		return
	}
	if len(token) != 1 {
		s.CloseWithMsg([]byte("Multiple tokens provided"))
		return
	}

	connectingUser, ok := ws.redeemConnectToken(token[0])
	if !ok {
		s.CloseWithMsg([]byte("Invalid token"))
		return
	}

	// Store the connection info!
	s.Set("user", connectingUser)

	sessId := utils.RandomString(32)
	s.Set("id", sessId)

	ws.svcs.Log.Infof("WS connect user: %v, session: %v", connectingUser.UserID, sessId)
}

func (ws *WSHandler) HandleDisconnect(s *melody.Session) {
	id, ok := getSessionId(s)
	if !ok {
		ws.svcs.Log.Errorf("WS disconnect for session with missing or corrupt id")
		return
	}

	connectingUser, err := getSessionUser(s)
	if err != nil {
		ws.svcs.Log.Errorf("WS disconnect session %v: %v", id, err)
		return
	}

	ws.svcs.Log.Infof("WS disconnect user: %v, session: %v", connectingUser.UserID, id)
}

// The socket is push-only, job updates go out and nothing is expected back.
// Anything a client does send gets logged and dropped
func (ws *WSHandler) HandleMessage(s *melody.Session, msg []byte) {
	id, _ := getSessionId(s)
	ws.svcs.Log.Debugf("WS ignoring %v byte message from session %v", len(msg), id)
}
