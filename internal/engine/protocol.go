// Package engine reaches the host collection engine, an MCP server that owns
// the Anki collection, and exposes it as a collection.Accessor.
//
// The engine must provide these tools. Every call after open_collection
// carries the "handle" it returned.
//
//	check_collection   {path}
//	open_collection    {path}                       -> {handle}
//	close_collection   {handle}
//	collection_info                                 -> collection.Info
//	list_decks                                      -> {decks}
//	get_deck           {deck_id}                    -> {deck}
//	create_deck        {name}                       -> {deck_id}
//	list_note_types                                 -> {note_types}
//	add_note           {note, deck_id}              -> {note_id, card_count}
//	get_note           {note_id}                    -> {note}
//	update_note        {note}
//	find_notes         {query}                      -> {note_ids}
//	sync_login         {username, password, endpoint} -> {auth}
//	sync_collection    {auth, sync_media}           -> {output}
//
// Failures are isError results whose text is the engine's message.
package engine

import "github.com/mousetail/mousetail/internal/collection"

// Engine tool names.
const (
	ToolCheckCollection = "check_collection"
	ToolOpenCollection  = "open_collection"
	ToolCloseCollection = "close_collection"
	ToolCollectionInfo  = "collection_info"
	ToolListDecks       = "list_decks"
	ToolGetDeck         = "get_deck"
	ToolCreateDeck      = "create_deck"
	ToolListNoteTypes   = "list_note_types"
	ToolAddNote         = "add_note"
	ToolGetNote         = "get_note"
	ToolUpdateNote      = "update_note"
	ToolFindNotes       = "find_notes"
	ToolSyncLogin       = "sync_login"
	ToolSyncCollection  = "sync_collection"
)

type openResult struct {
	Handle string `json:"handle"`
}

type decksResult struct {
	Decks []collection.Deck `json:"decks"`
}

type deckResult struct {
	Deck collection.Deck `json:"deck"`
}

type createDeckResult struct {
	DeckID int64 `json:"deck_id"`
}

type noteTypesResult struct {
	NoteTypes []collection.NoteType `json:"note_types"`
}

type noteResult struct {
	Note collection.Note `json:"note"`
}

type findNotesResult struct {
	NoteIDs []int64 `json:"note_ids"`
}

type loginResult struct {
	Auth collection.SyncAuth `json:"auth"`
}

type syncResult struct {
	Output string `json:"output"`
}
