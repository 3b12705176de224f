package avatarlobby

// Wire tags for the command set. A payload's first field is always one of
// these; the tag picks the decoder for the remaining fields.
const (
	TagJoin        = "pJoin"        // id, skin, x, z
	TagMove        = "pMove"        // id, x, z
	TagText        = "pText"        // id, message
	TagWhisper     = "pWhisper"     // message (client to server, sender implicit)
	TagWhisperFrom = "pWhisperFrom" // id, message (server to clients)
	TagLeave       = "pLeave"       // id
	TagWorld       = "pWorld"       // count, then per avatar: id, skin, x, z
	TagSetName     = "pSetName"     // name
	TagJoinRoom    = "pJoinRoom"    // room
	TagListRooms   = "pListRooms"   // no fields
	TagWho         = "pWho"         // no fields
	TagList        = "pList"        // no fields
	TagHelp        = "pHelp"        // no fields
	TagChangeSkin  = "pSkin"        // id, skin
	TagNotice      = "pNotice"      // message (server to one client)
)

// Standard error messages
const (
	// Protocol errors
	ErrMalformedPacket = "malformed packet"
	ErrUnknownTag      = "unknown tag"

	// Connection errors
	ErrConnectionClosed     = "client connection is closed"
	ErrSendBufferFull       = "client send buffer is full"
	ErrServerAlreadyRunning = "server already running"
	ErrServerNotRunning     = "server not running"

	// Command validation notices, sent back to the offending client only.
	NoticeEmptyName     = "Name cannot be empty, please choose a different name."
	NoticeNameTaken     = "That name is already taken."
	NoticeSelfWhisper   = "You cannot whisper to yourself."
	NoticeUnknownTarget = "No such user."
	NoticeEmptyRoom     = "Room name cannot be empty."
)
