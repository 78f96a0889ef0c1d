package reconcile

import (
	"github.com/patrickmn/go-cache"
)

// Memo remembers the CRM contact resolved for each donor key during one run.
// A stored id of 0 records that the CRM had no contact for the key. Failed
// lookups and creates are remembered separately so no CRM call is repeated
// for a key within the run.
type Memo struct {
	contacts *cache.Cache
	failures *cache.Cache
}

// NewMemo creates an empty memo. Entries never expire; a memo lives for one run.
func NewMemo() *Memo {
	return &Memo{
		contacts: cache.New(cache.NoExpiration, 0),
		failures: cache.New(cache.NoExpiration, 0),
	}
}

// Lookup returns the remembered contact id for key. known is false when the
// key has not been resolved yet or its resolution failed.
func (m *Memo) Lookup(key string) (id int, known bool) {
	v, ok := m.contacts.Get(key)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// Remember stores the resolved contact id for key.
func (m *Memo) Remember(key string, id int) {
	m.contacts.Set(key, id, cache.NoExpiration)
	m.failures.Delete(key)
}

// Fail records that resolving key failed with err.
func (m *Memo) Fail(key string, err error) {
	m.failures.Set(key, err, cache.NoExpiration)
}

// Failure returns the error remembered for key, or nil.
func (m *Memo) Failure(key string) error {
	v, ok := m.failures.Get(key)
	if !ok {
		return nil
	}
	return v.(error)
}

// Len returns the number of resolved keys.
func (m *Memo) Len() int {
	return m.contacts.ItemCount()
}
