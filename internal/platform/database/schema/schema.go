// Copyright (c) 2026 Lector. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema holds table and column names for both stores.
//
// Remote tables live in the "sync" PostgreSQL schema; local tables live in the
// on-device SQLite file and carry no schema prefix.
package schema
