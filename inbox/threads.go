package inbox

import (
	"sort"

	"crewbox/models"
)

// GroupThreads partitions a record set into ordered conversation threads.
// It is a pure function of the input: records sharing a provider thread id
// form one thread, records without one are their own singleton. Members are
// sorted descending by provider ordering key (missing keys sort as 0, i.e.
// oldest), and threads are sorted descending by their latest member's key.
//
// The data sets here are hundreds of records, so a full recompute per call
// is cheaper than maintaining the partition incrementally.
func GroupThreads(records []models.EmailRecord) []models.Thread {
	groups := make(map[string][]models.EmailRecord)
	var order []string // first-arrival order of thread keys

	for _, rec := range records {
		key := rec.ThreadKey()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	threads := make([]models.Thread, 0, len(order))
	for _, key := range order {
		members := groups[key]
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].OrderingKey > members[j].OrderingKey
		})

		unread := 0
		for _, m := range members {
			if !m.Read {
				unread++
			}
		}

		threads = append(threads, models.Thread{
			ID:          key,
			Records:     members,
			UnreadCount: unread,
		})
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].Latest().OrderingKey > threads[j].Latest().OrderingKey
	})

	return threads
}
