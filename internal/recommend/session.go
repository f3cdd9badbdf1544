package recommend

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// ErrSuperseded は同じクライアントのより新しいリクエストに置き換えられたことを表す。
var ErrSuperseded = errors.New("より新しいリクエストに置き換えられました")

// Recommender はおすすめ記事の取得元。
type Recommender interface {
	GetRecommendations(ctx context.Context, clientID string, req Request) Result
}

// Session は1クライアントのおすすめ取得を最後のリクエスト優先で扱う。
// 条件の異なる新しいリクエストが来た場合は処理中のリクエストをキャンセルし、
// 置き換えられたリクエストの結果は公開しない。
// 同じ条件のリクエストは処理中のリクエストに合流し、同じ結果を受け取る。
type Session struct {
	engine   Recommender
	clientID string

	mu       sync.Mutex
	seq      uint64
	inflight *inflightRequest
	latest   *Result
}

type inflightRequest struct {
	seq    uint64
	req    Request
	cancel context.CancelFunc
	done   chan struct{}
	res    Result
	err    error
}

// NewSession はSessionを生成する。
func NewSession(engine Recommender, clientID string) *Session {
	return &Session{engine: engine, clientID: clientID}
}

// Request はおすすめ記事を取得する。
// 実行中に新しいリクエストへ置き換えられた場合はErrSupersededを返す。
func (s *Session) Request(ctx context.Context, req Request) (Result, error) {
	s.mu.Lock()
	if prev := s.inflight; prev != nil && sameRequest(prev.req, req) {
		s.mu.Unlock()
		select {
		case <-prev.done:
			return prev.res, prev.err
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.seq++
	mine := &inflightRequest{seq: s.seq, req: req, cancel: cancel, done: make(chan struct{})}
	if prev := s.inflight; prev != nil {
		prev.cancel()
	}
	s.inflight = mine
	s.mu.Unlock()

	res := s.engine.GetRecommendations(ctx, s.clientID, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(mine.done)
	if s.seq != mine.seq {
		mine.err = ErrSuperseded
		return Result{}, ErrSuperseded
	}
	s.inflight = nil
	s.latest = &res
	mine.res = res
	return res, nil
}

// Latest は最後に公開された結果を返す。
func (s *Session) Latest() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Result{}, false
	}
	return *s.latest, true
}

func sameRequest(a, b Request) bool {
	if a.Category != b.Category || a.Limit != b.Limit || a.ForceRefresh != b.ForceRefresh {
		return false
	}
	x, y := slices.Clone(a.ExcludeIDs), slices.Clone(b.ExcludeIDs)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Sessions はクライアントIDごとのSessionを保持する。
// Sessionはリクエストの処理中だけ保持し、処理中のリクエストがなくなった時点で破棄する。
type Sessions struct {
	engine Recommender

	mu       sync.Mutex
	sessions map[string]*sessionRef
}

type sessionRef struct {
	sess *Session
	refs int
}

// NewSessions はSessionsを生成する。
func NewSessions(engine Recommender) *Sessions {
	return &Sessions{engine: engine, sessions: make(map[string]*sessionRef)}
}

// acquire はクライアントのSessionを返す。存在しない場合は作成する。
// 使用後は必ずreleaseを呼び出す。
func (s *Sessions) acquire(clientID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.sessions[clientID]
	if !ok {
		ref = &sessionRef{sess: NewSession(s.engine, clientID)}
		s.sessions[clientID] = ref
	}
	ref.refs++
	return ref.sess
}

func (s *Sessions) release(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.sessions[clientID]
	if !ok {
		return
	}
	if ref.refs--; ref.refs <= 0 {
		delete(s.sessions, clientID)
	}
}

// Len は保持しているSessionの数を返す。
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Request はクライアントのSessionでおすすめ記事を取得する。
func (s *Sessions) Request(ctx context.Context, clientID string, req Request) (Result, error) {
	sess := s.acquire(clientID)
	defer s.release(clientID)
	return sess.Request(ctx, req)
}
