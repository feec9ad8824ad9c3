// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package core

import "context"

// Notifier is an interface to receive notifications about changes to the
// restaurant's documents, for example a recorded payment.
//
// Notifications are best-effort. Implementations must not block the request
// longer than the request context allows and must not fail the request.
type Notifier interface {
	Notify(ctx context.Context, resource string, operation Operation, payload interface{})
}
