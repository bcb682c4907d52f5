package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"carrental/internal/app/commands"
	imagesapp "carrental/internal/app/handlers/images"
	"carrental/internal/app/policies"
)

const maxImageBytes = 10 << 20

type ImageHandler struct {
	Commands commands.Bus
}

func (h ImageHandler) Upload(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageBytes)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	cmd := imagesapp.UploadCommand{
		Session:     sess,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}
	result, err := commands.Dispatch[imagesapp.UploadCommand, *policies.UploadedImage](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ ImageHTTP = ImageHandler{}
