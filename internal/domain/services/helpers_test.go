package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/mocks"
)

// Member ids of the family built by seedFamily.
const (
	grandpa         int64 = 1  // 罗银荣
	grandma         int64 = 2  // 王秀英
	father          int64 = 3  // 罗成
	mother          int64 = 4  // 李梅
	son             int64 = 5  // 罗小明
	daughter        int64 = 6  // 罗小红
	uncle           int64 = 7  // 罗军, father's younger brother
	aunt            int64 = 8  // 罗芳, father's younger sister
	paternalCousin  int64 = 9  // 罗强, uncle's son
	maternalCousin  int64 = 10 // 张伟, aunt's son
	maternalGrandpa int64 = 11 // 李国华, mother's father
	stranger        int64 = 12 // 陈路人, no relationships
	maternalAunt    int64 = 13 // 李兰, mother's younger sister
	auntsDaughter   int64 = 14 // 周丽, maternalAunt's daughter
)

type testFamily struct {
	store       *mocks.FamilyStore
	lock        *sync.RWMutex
	members     *MemberService
	propagation *PropagationService
	kinship     *KinshipService
	network     *NetworkService
}

func newTestFamily() *testFamily {
	store := mocks.NewFamilyStore()
	lock := NewFamilyLock()
	return &testFamily{
		store:       store,
		lock:        lock,
		members:     NewMemberService(store, lock),
		propagation: NewPropagationService(store, lock),
		kinship:     NewKinshipService(store, lock),
		network:     NewNetworkService(store, lock),
	}
}

func (f *testFamily) add(t *testing.T, name string, gender entities.Gender, generation int) int64 {
	t.Helper()
	m, err := f.members.Create(context.Background(), &entities.Member{
		Name:       name,
		Gender:     gender,
		Generation: generation,
	})
	require.NoError(t, err)
	return m.ID
}

func (f *testFamily) assert(t *testing.T, from, to int64, code entities.RelationCode) *AssertResult {
	t.Helper()
	res, err := f.propagation.AssertRelationship(context.Background(), from, to, code)
	require.NoError(t, err, "asserting %d -> %d %s", from, to, code)
	return res
}

// has reports whether the store holds the (from, to, code) edge.
func (f *testFamily) has(t *testing.T, from, to int64, code entities.RelationCode) bool {
	t.Helper()
	rels, err := f.store.ListRelationships(context.Background())
	require.NoError(t, err)
	for _, rel := range rels {
		if rel.FromID == from && rel.ToID == to && rel.Type == code {
			return true
		}
	}
	return false
}

// seedFamily builds three generations on the paternal side, a maternal
// grandfather and one unrelated member:
//
//	grandpa = grandma            maternalGrandpa
//	   |-- father = mother ---------'
//	   |      |-- son, daughter
//	   |-- uncle -- paternalCousin
//	   '-- aunt  -- maternalCousin
func seedFamily(t *testing.T) *testFamily {
	t.Helper()
	f := newTestFamily()

	require.Equal(t, grandpa, f.add(t, "罗银荣", entities.Male, 0))
	require.Equal(t, grandma, f.add(t, "王秀英", entities.Female, 0))
	require.Equal(t, father, f.add(t, "罗成", entities.Male, 1))
	require.Equal(t, mother, f.add(t, "李梅", entities.Female, 1))
	require.Equal(t, son, f.add(t, "罗小明", entities.Male, 2))
	require.Equal(t, daughter, f.add(t, "罗小红", entities.Female, 2))
	require.Equal(t, uncle, f.add(t, "罗军", entities.Male, 1))
	require.Equal(t, aunt, f.add(t, "罗芳", entities.Female, 1))
	require.Equal(t, paternalCousin, f.add(t, "罗强", entities.Male, 2))
	require.Equal(t, maternalCousin, f.add(t, "张伟", entities.Male, 2))
	require.Equal(t, maternalGrandpa, f.add(t, "李国华", entities.Male, 0))
	require.Equal(t, stranger, f.add(t, "陈路人", entities.Male, 2))

	f.assert(t, grandpa, grandma, entities.Wife)
	f.assert(t, grandpa, father, entities.EldestSon)
	f.assert(t, father, mother, entities.Wife)
	f.assert(t, father, son, entities.EldestSon)
	f.assert(t, mother, daughter, entities.EldestDaughter)
	f.assert(t, grandpa, uncle, entities.SecondSon)
	f.assert(t, grandpa, aunt, entities.EldestDaughter)
	f.assert(t, uncle, paternalCousin, entities.EldestSon)
	f.assert(t, aunt, maternalCousin, entities.EldestSon)
	f.assert(t, maternalGrandpa, mother, entities.EldestDaughter)

	return f
}

// seedWithMaternalAunt extends seedFamily with the mother's younger sister
// and her daughter.
func seedWithMaternalAunt(t *testing.T) *testFamily {
	t.Helper()
	f := seedFamily(t)

	require.Equal(t, maternalAunt, f.add(t, "李兰", entities.Female, 1))
	require.Equal(t, auntsDaughter, f.add(t, "周丽", entities.Female, 2))

	f.assert(t, maternalGrandpa, maternalAunt, entities.SecondDaughter)
	f.assert(t, maternalAunt, auntsDaughter, entities.EldestDaughter)

	return f
}
