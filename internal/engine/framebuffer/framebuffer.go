// Package framebuffer provides OpenGL offscreen render targets and the
// allocator reflection passes draw into.
package framebuffer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/midgard-mirror/internal/engine/render"
)

// Framebuffer is a color+depth render target. With more than one sample
// it draws into multisampled renderbuffers and Resolve copies the result
// into the sampleable color texture.
type Framebuffer struct {
	desc render.TargetDesc

	fbo          uint32
	colorTexture uint32
	depthRBO     uint32

	// Multisampled draw buffers; zero when Samples <= 1.
	msaaFBO   uint32
	msaaColor uint32
	msaaDepth uint32
}

// New creates a framebuffer for desc. Sizes below 1 are clamped.
func New(desc render.TargetDesc) (*Framebuffer, error) {
	desc.Width = max(desc.Width, 1)
	desc.Height = max(desc.Height, 1)
	desc.Samples = max(desc.Samples, 1)

	fb := &Framebuffer{desc: desc}
	if err := fb.create(); err != nil {
		return nil, fmt.Errorf("creating framebuffer %s: %w", desc, err)
	}
	return fb, nil
}

// colorFormat returns the internal format, pixel format and type of the
// color attachment.
func colorFormat(hdr bool) (internal int32, format, xtype uint32) {
	if hdr {
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	}
	return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
}

// depthFormat maps depth bits to a renderbuffer format. Unknown values
// get 24 bits.
func depthFormat(bits int) uint32 {
	switch bits {
	case 16:
		return gl.DEPTH_COMPONENT16
	case 32:
		return gl.DEPTH_COMPONENT32F
	default:
		return gl.DEPTH_COMPONENT24
	}
}

func (fb *Framebuffer) create() error {
	w, h := int32(fb.desc.Width), int32(fb.desc.Height)
	internal, format, xtype := colorFormat(fb.desc.HDR)
	depth := depthFormat(fb.desc.DepthBits)

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)

	gl.GenTextures(1, &fb.colorTexture)
	gl.BindTexture(gl.TEXTURE_2D, fb.colorTexture)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, w, h, 0, format, xtype, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.colorTexture, 0)

	gl.GenRenderbuffers(1, &fb.depthRBO)
	gl.BindRenderbuffer(gl.RENDERBUFFER, fb.depthRBO)
	gl.RenderbufferStorage(gl.RENDERBUFFER, depth, w, h)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.depthRBO)

	if err := checkComplete(); err != nil {
		fb.Destroy()
		return err
	}

	if fb.desc.Samples > 1 {
		samples := int32(fb.desc.Samples)
		gl.GenFramebuffers(1, &fb.msaaFBO)
		gl.BindFramebuffer(gl.FRAMEBUFFER, fb.msaaFBO)

		gl.GenRenderbuffers(1, &fb.msaaColor)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.msaaColor)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, samples, uint32(internal), w, h)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, fb.msaaColor)

		gl.GenRenderbuffers(1, &fb.msaaDepth)
		gl.BindRenderbuffer(gl.RENDERBUFFER, fb.msaaDepth)
		gl.RenderbufferStorageMultisample(gl.RENDERBUFFER, samples, depth, w, h)
		gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.RENDERBUFFER, fb.msaaDepth)

		if err := checkComplete(); err != nil {
			fb.Destroy()
			return fmt.Errorf("multisample: %w", err)
		}
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return nil
}

func checkComplete() error {
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return fmt.Errorf("framebuffer incomplete: 0x%x", status)
	}
	return nil
}

func (fb *Framebuffer) Width() int   { return fb.desc.Width }
func (fb *Framebuffer) Height() int  { return fb.desc.Height }
func (fb *Framebuffer) HDR() bool    { return fb.desc.HDR }
func (fb *Framebuffer) Samples() int { return fb.desc.Samples }

// Desc returns the description the framebuffer was created from.
func (fb *Framebuffer) Desc() render.TargetDesc { return fb.desc }

func (fb *Framebuffer) drawFBO() uint32 {
	if fb.msaaFBO != 0 {
		return fb.msaaFBO
	}
	return fb.fbo
}

// BindWithViewport binds the draw buffers and sets the viewport. The
// returned function restores the previous framebuffer and viewport.
func (fb *Framebuffer) BindWithViewport() func() {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.drawFBO())
	gl.Viewport(0, 0, int32(fb.desc.Width), int32(fb.desc.Height))

	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
		gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])
	}
}

// Resolve copies multisampled color into the color texture. It is a
// no-op for single-sample targets.
func (fb *Framebuffer) Resolve() {
	if fb.msaaFBO == 0 {
		return
	}
	w, h := int32(fb.desc.Width), int32(fb.desc.Height)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.msaaFBO)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, fb.fbo)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// ReadPixels returns the resolved color buffer as bottom-up RGBA rows.
func (fb *Framebuffer) ReadPixels() []byte {
	return readPixels(fb.fbo, fb.desc.Width, fb.desc.Height)
}

// ReadScreen returns the default framebuffer's back buffer as bottom-up
// RGBA rows.
func ReadScreen(width, height int) []byte {
	return readPixels(0, width, height)
}

func readPixels(fbo uint32, width, height int) []byte {
	var prev int32
	gl.GetIntegerv(gl.READ_FRAMEBUFFER_BINDING, &prev)
	defer gl.BindFramebuffer(gl.READ_FRAMEBUFFER, uint32(prev))

	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fbo)
	if fbo == 0 {
		gl.ReadBuffer(gl.BACK)
	}
	pixels := make([]byte, width*height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels
}

// ColorTexture returns the sampleable color texture ID.
func (fb *Framebuffer) ColorTexture() uint32 {
	return fb.colorTexture
}

// Destroy releases all OpenGL resources.
func (fb *Framebuffer) Destroy() {
	fbos := []*uint32{&fb.fbo, &fb.msaaFBO}
	for _, id := range fbos {
		if *id != 0 {
			gl.DeleteFramebuffers(1, id)
			*id = 0
		}
	}
	if fb.colorTexture != 0 {
		gl.DeleteTextures(1, &fb.colorTexture)
		fb.colorTexture = 0
	}
	rbos := []*uint32{&fb.depthRBO, &fb.msaaColor, &fb.msaaDepth}
	for _, id := range rbos {
		if *id != 0 {
			gl.DeleteRenderbuffers(1, id)
			*id = 0
		}
	}
}
