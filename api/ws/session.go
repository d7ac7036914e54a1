package ws

import (
	"errors"

	"github.com/olahol/melody"
	"github.com/microstitch/core/core/jwtparser"
)

func getSessionId(s *melody.Session) (string, bool) {
	_id, ok := s.Get("id")
	if !ok {
		return "", false
	}

	id, ok := _id.(string)
	return id, ok
}

func getSessionUser(s *melody.Session) (jwtparser.JWTUserInfo, error) {
	var connectingUser jwtparser.JWTUserInfo

	_connectingUser, ok := s.Get("user")
	if !ok {
		return connectingUser, errors.New("User not found on session")
	}

	connectingUser, ok = _connectingUser.(jwtparser.JWTUserInfo)
	if !ok {
		return connectingUser, errors.New("User details corrupt on session")
	}

	return connectingUser, nil
}
