package model

import "time"

// Floor groups tables.  Deleting a floor deletes its tables.
type Floor struct {
    ID        uint64    // floors.id
    Name      string    // floors.name
    CreatedAt time.Time // floors.created_at
}

// Table is a bookable table.  Available is false while an active
// reservation holds it.
type Table struct {
    ID        uint64 // tables.id
    FloorID   uint64 // tables.floor_id
    Name      string // tables.name
    PosTop    int    // tables.pos_top
    PosLeft   int    // tables.pos_left
    Capacity  int    // tables.capacity
    Available bool   // tables.available
}

// TablePlacement is a table together with the floor it stands on.
type TablePlacement struct {
    Table Table
    Floor Floor
}
