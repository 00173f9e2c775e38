package entity

// Resource types carried in the ResourceType message attribute
const (
	ResourceTypeMovement           = "movement"
	ResourceTypePreNotification    = "pre-notification"
	ResourceTypeCustomsDeclaration = "customs-declaration"
)

// Message attribute names
const (
	AttributeResourceType    = "ResourceType"
	AttributeContentEncoding = "Content-Encoding"
	AttributeMessageType     = "MessageType"
)

// ContentEncodingGzipBase64 is the only supported non-plain body encoding.
const ContentEncodingGzipBase64 = "gzip, base64"

// InboundMessage is a transport-neutral view of a received message.
type InboundMessage struct {
	MessageID       string
	ResourceType    string
	ContentEncoding string
	Body            string
}
