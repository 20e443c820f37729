package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// InMemoryMessageStore is the fallback when neither SQLite nor Redis is
// available. History is lost on restart.
type InMemoryMessageStore struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]string
}

func InitMessageStore() *InMemoryMessageStore {
	return &InMemoryMessageStore{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]string),
	}
}

func (store *InMemoryMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[chatId]
	return ok
}

func (store *InMemoryMessageStore) InitNewChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	if _, ok := store.chatMap[id]; !ok {
		store.chatMap[id] = make([]string, 0)
	}
	return nil
}

func (store *InMemoryMessageStore) SaveTurn(ctx context.Context, id string, role string, text string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[id] = append(store.chatMap[id], fmt.Sprintf("%s: %s", role, text))
	return nil
}

func (store *InMemoryMessageStore) GetMessageHistory(ctx context.Context, chatId string, lastK int) ([]string, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()

	turns := store.chatMap[chatId]
	if lastK < 1 || len(turns) == 0 {
		return nil, nil
	}
	if lastK < len(turns) {
		turns = turns[len(turns)-lastK:]
	}
	out := make([]string, len(turns))
	copy(out, turns)
	return out, nil
}

func (store *InMemoryMessageStore) ListChats(ctx context.Context) ([]string, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()

	ids := make([]string, 0, len(store.chatMap))
	for id := range store.chatMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (store *InMemoryMessageStore) DeleteChat(ctx context.Context, id string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, id)
	return nil
}
