// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
)

func (b *Backend) handleStatistics() {
	b.handle(http.MethodGet, "/admin-stats", func(r *http.Request) (interface{}, error) {
		stats, err := b.store.AdminStats(r.Context())
		if err != nil {
			return nil, internal(4701, err)
		}
		return stats, nil
	}, b.requireToken, b.requireAdmin)

	b.handle(http.MethodGet, "/order-stats", func(r *http.Request) (interface{}, error) {
		stats, err := b.store.OrderStats(r.Context())
		if err != nil {
			return nil, internal(4702, err)
		}
		return stats, nil
	}, b.requireToken, b.requireAdmin)
}
