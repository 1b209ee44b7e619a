// Package core provides the business logic for workbook import operations.
//
// This package is the heart of the importer, containing all domain logic
// independent of any storage engine or transport layer. It can be used by web
// handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// An import runs in four stages, one sheet at a time:
//
//   - Coercion: [Cell] values are turned into typed, nullable pgtype values by
//     the To* functions. Coercion never fails; unreadable input becomes null.
//   - Processing: [ProcessSheet] validates each row against its [Descriptor]
//     and runs the descriptor's transform to build a [Record].
//   - Loading: [LoadBatches] inserts records in batches through a [Model],
//     skipping identifiers that already exist.
//   - Orchestration: [Importer.Run] walks the descriptors in dependency order
//     and aggregates a [Report].
//
// # Descriptor Registry
//
// Descriptors are registered at init time using [Register]. Each one maps one
// worksheet to one storage entity:
//
//	core.Register(core.Descriptor{
//	    Sheet:  "Region",
//	    Entity: "regions",
//	    Order:  10,
//	    Columns: []core.Column{
//	        core.IntegerColumn("ID"),
//	        core.TextColumn("Name"),
//	    },
//	    Transform: buildRegion,
//	})
//
// A descriptor may only reference entities with a lower Order. [NewImporter]
// refuses to build an importer when [ValidateOrder] fails.
//
// # Transactions
//
// [Importer.Run] never commits or rolls back. The caller owns the transaction
// and decides from the report whether to keep the data.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - DB001-DB007: Database errors (duplicates, constraints, connections)
//   - VAL001-VAL006: Validation errors (formats, missing columns)
//   - FILE001-FILE005: File errors (size, format, empty payloads)
//   - IMP001-IMP004: Import errors (missing sheets or tables, busy, cancelled)
package core
