package mcp

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/thoughts/internal/thought"
)

var listToolDef = mcp.NewTool("thought_list",
	mcp.WithDescription("List thought records, most recently updated first. Drafts route to /form/{id}, completed records to /view/{id}."),
	mcp.WithString("filter",
		mcp.Description("all (default), drafts, or final"),
		mcp.Enum("all", "drafts", "final"),
	),
	mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var viewToolDef = mcp.NewTool("thought_view",
	mcp.WithDescription("Read one thought record, including a markdown rendering."),
	mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
)

var openToolDef = mcp.NewTool("draft_open",
	mcp.WithDescription("Open an edit session for a new entry or an existing record. The session autosaves on a fixed interval once a situation or thought is entered."),
	mcp.WithString("ref", mcp.Description(`"new" (default) or a record id`)),
)

var editToolDef = mcp.NewTool("draft_edit",
	mcp.WithDescription("Change fields of an open session's working copy. Omitted fields are left unchanged."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session handle from draft_open")),
	mcp.WithString("situation"),
	mcp.WithString("thought"),
	mcp.WithNumber("distressLevel", mcp.Min(0), mcp.Max(10)),
	mcp.WithArray("emotions",
		mcp.Description("Replaces the selected emotions. Options: "+strings.Join(thought.EmotionOptions, ", ")),
		mcp.WithStringItems(),
	),
	mcp.WithArray("toggleEmotions",
		mcp.Description("Emotions to toggle on or off"),
		mcp.WithStringItems(),
	),
	mcp.WithString("otherEmotion"),
	mcp.WithString("bodySensations"),
	mcp.WithNumber("valuesInterference", mcp.Min(0), mcp.Max(10)),
	mcp.WithNumber("beliefStrength", mcp.Min(0), mcp.Max(100)),
	mcp.WithNumber("postDistancingValuesInterference", mcp.Min(0), mcp.Max(10)),
	mcp.WithNumber("postDistancingBeliefStrength", mcp.Min(0), mcp.Max(100)),
	mcp.WithString("whatFeelsPossible"),
	mcp.WithNumber("postDistancingDistressLevel", mcp.Min(0), mcp.Max(10)),
)

var checkpointToolDef = mcp.NewTool("draft_checkpoint",
	mcp.WithDescription("Autosave the session now. Empty entries are skipped; a save already in progress makes this a no-op."),
	mcp.WithString("session", mcp.Required()),
)

var submitToolDef = mcp.NewTool("draft_submit",
	mcp.WithDescription("Submit the entry as a completed record. Repeating it returns the same record."),
	mcp.WithString("session", mcp.Required()),
)

var closeToolDef = mcp.NewTool("draft_close",
	mcp.WithDescription("Close a session and stop its autosave. Unsaved edits since the last save are discarded."),
	mcp.WithString("session", mcp.Required()),
)
