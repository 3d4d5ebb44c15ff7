package services

import "sync"

// MatchLocks сериализует мутации одного матча (ввод результатов и замены
// игроков), чтобы две конкурентные операции не собрали противоречивый
// набор досок. Чтения таблицы блокировок не требуют.
type MatchLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewMatchLocks() *MatchLocks {
	return &MatchLocks{locks: make(map[int]*sync.Mutex)}
}

func (l *MatchLocks) lock(matchID int) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[matchID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[matchID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
