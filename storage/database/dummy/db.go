package dummydb

import (
	"sync"

	"github.com/trezcool/ppdb/core/applicant"
	"github.com/trezcool/ppdb/core/region"
)

type (
	// DB is an in-memory stand-in for the Postgres database, used by the API tests and in debug mode without a database.
	DB struct {
		sync.RWMutex
		registrants  map[int]*applicant.Registrant
		addresses    map[int]region.AddressRecord
		priorSchools map[int]applicant.PriorSchool
	}
)

func Open() (*DB, error) {
	db := &DB{
		registrants:  make(map[int]*applicant.Registrant),
		addresses:    make(map[int]region.AddressRecord),
		priorSchools: make(map[int]applicant.PriorSchool),
	}
	return db, nil
}

// AddRegistrant stores reg, replacing any registrant of the same user.
func (db *DB) AddRegistrant(reg applicant.Registrant) {
	db.Lock()
	defer db.Unlock()
	db.registrants[reg.UserID] = &reg
}
