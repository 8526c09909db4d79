package premium

import "github.com/xraph/premium/id"

// ID is the identifier type for Premium entities that mint ids.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
