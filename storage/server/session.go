package server

import (
	"net"
	"time"
)

// Session 单个连接上的命令层状态，只会被处理该连接的协程访问
type Session struct {
	id         int64
	remoteAddr net.Addr
	createdAt  time.Time
	db         int
	closing    bool
}

func NewSession(id int64, remoteAddr net.Addr) *Session {
	return &Session{
		id:         id,
		remoteAddr: remoteAddr,
		createdAt:  time.Now(),
	}
}

func (s *Session) Id() int64 {
	return s.id
}

func (s *Session) RemoteAddr() string {
	if s.remoteAddr == nil {
		return ""
	}
	return s.remoteAddr.String()
}

func (s *Session) DB() int {
	return s.db
}

func (s *Session) Select(db int) {
	s.db = db
}

// CloseAfterReply 回复当前命令之后关闭连接
func (s *Session) CloseAfterReply() {
	s.closing = true
}

func (s *Session) Closing() bool {
	return s.closing
}
