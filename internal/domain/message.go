package domain

// ObjectRecognitionMessage is one request to the recognition server.
type ObjectRecognitionMessage struct {
	id         string
	image      []byte
	objectName string
}

// NewObjectRecognitionMessage copies image so the message cannot change after construction.
func NewObjectRecognitionMessage(id string, image []byte, objectName string) ObjectRecognitionMessage {
	img := make([]byte, len(image))
	copy(img, image)
	return ObjectRecognitionMessage{
		id:         id,
		image:      img,
		objectName: objectName,
	}
}

func (m ObjectRecognitionMessage) ID() string         { return m.id }
func (m ObjectRecognitionMessage) Image() []byte      { return m.image }
func (m ObjectRecognitionMessage) ObjectName() string { return m.objectName }
