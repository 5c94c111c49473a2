package interpreter

import (
	"sanity/engine-go/pkg/ast"
	"sanity/engine-go/pkg/runtime"
)

func (i *Interpreter) execOpen(fr *frame, node *ast.OpenStatement) (runtime.Value, error) {
	if i.files == nil {
		return nil, i.blamef(fr, "no file adapter is wired, cannot open %q", node.Handle)
	}
	pathVal, err := i.evalExpr(fr, node.Path)
	if err != nil {
		return nil, err
	}
	path := wordOf(pathVal)

	if err := i.files.Open(path); err != nil {
		return nil, i.blamef(fr, "could not open %q: %v", path, err)
	}

	e := runtime.NewFileHandle(i.ctx.Store, path, i.ctx.Config.InitialSP)
	fr.env.Define(node.Handle, e.ID, 0, runtime.KindHandle)
	fr.touch(e.ID)
	i.mu.Lock()
	i.openHandles[path] = e.ID
	i.mu.Unlock()
	return e.Value, nil
}

func (i *Interpreter) execWrite(fr *frame, node *ast.WriteStatement) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Handle)
	if err != nil {
		return nil, err
	}
	dataVal, err := i.evalExpr(fr, node.Data)
	if err != nil {
		return nil, err
	}
	data := wordOf(dataVal)

	// An Angry handle pretends to write and trusts you a little less.
	if e.Mood == runtime.MoodAngry {
		e.LoseTrust(10, i.ctx.Tick(), i.ctx.Config)
		return runtime.VoidValue{}, nil
	}
	// A Tired handle sometimes loses the tail of the content.
	if e.HasTrait(runtime.TraitTired) && i.ctx.Rand.Float64() < i.ctx.Config.TiredTruncateChance {
		cut := len(data) * 9 / 10
		if cut < 1 {
			cut = 1
		}
		data = data[:cut]
	}

	var n int64
	if node.Append {
		n, err = i.files.Append(e.Name, data)
	} else {
		n, err = i.files.Write(e.Name, data)
	}
	if err != nil {
		i.setMood(e, runtime.MoodAngry)
		return nil, i.blamef(fr, "write to %q failed: %v", e.Name, err)
	}
	i.ctx.Ledger.ChargeDelta("file.write", runtime.FileReadCost(n))
	return runtime.NumberValue{Val: float64(n)}, nil
}

func (i *Interpreter) readHandle(fr *frame, node *ast.ReadExpression) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Handle)
	if err != nil {
		return nil, err
	}
	content, size, err := i.files.Read(e.Name)
	if err != nil {
		i.setMood(e, runtime.MoodAngry)
		return nil, i.blamef(fr, "read from %q failed: %v", e.Name, err)
	}
	i.ctx.Ledger.ChargeDelta("file.read", runtime.FileReadCost(size))
	e.Observed = true
	// A big file wears the handle out.
	if size > 1024*1024 {
		e.GainTrait(runtime.TraitTired)
	}
	return runtime.WordValue{Val: content}, nil
}

func (i *Interpreter) execClose(fr *frame, node *ast.CloseStatement) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Handle)
	if err != nil {
		return nil, err
	}
	if err := i.files.Close(e.Name); err != nil {
		return nil, i.blamef(fr, "close of %q failed: %v", e.Name, err)
	}
	i.mu.Lock()
	delete(i.openHandles, e.Name)
	i.mu.Unlock()
	i.ctx.Destroy(e.ID, "closed")
	fr.env.Remove(node.Handle)
	return runtime.VoidValue{}, nil
}

//-----------------------------------------------------------------------------
// Canvas
//-----------------------------------------------------------------------------

func (i *Interpreter) execCanvasDecl(fr *frame, node *ast.CanvasDecl) (runtime.Value, error) {
	if i.canvas == nil {
		return nil, i.blamef(fr, "no canvas adapter is wired, cannot create %q", node.Name)
	}
	e := runtime.NewCanvas(i.ctx.Store, node.Name, i.ctx.Config.InitialSP)
	fr.env.Define(node.Name, e.ID, 0, runtime.KindHandle)
	fr.touch(e.ID)
	i.mu.Lock()
	i.canvases[node.Name] = e.ID
	i.mu.Unlock()
	return e.Value, nil
}

var drawCosts = map[string]runtime.CostKey{
	"pixel":  runtime.CostCanvasLine,
	"line":   runtime.CostCanvasLine,
	"rect":   runtime.CostCanvasRect,
	"circle": runtime.CostCanvasCircle,
	"text":   runtime.CostCanvasText,
	"clear":  runtime.CostCanvasClear,
}

func (i *Interpreter) execDraw(fr *frame, node *ast.DrawStatement) (runtime.Value, error) {
	e, err := i.lookup(fr, node.Canvas)
	if err != nil {
		return nil, err
	}

	// Draw costs come out of the canvas's own budget; the moment it runs
	// dry the whole surface loses its grip.
	if key, ok := drawCosts[node.Op]; ok {
		if i.ctx.Ledger.ChargeScoped(e, key) {
			i.ctx.Ledger.Charge(runtime.CostCanvasInsanityOnset)
			i.printf("[whine] canvas %q has seen too much\n", node.Canvas)
		}
	}

	args := make([]runtime.Value, len(node.Arguments))
	for idx, a := range node.Arguments {
		v, err := i.evalExpr(fr, a)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	num := func(pos int) int {
		if n, ok := argNumber(args, pos); ok {
			return int(n)
		}
		return 0
	}
	word := func(pos int) string {
		if w, ok := argWord(args, pos); ok {
			return w
		}
		return ""
	}

	switch node.Op {
	case "pixel":
		err = i.canvas.Pixel(num(0), num(1), word(2))
	case "line":
		err = i.canvas.Line(num(0), num(1), num(2), num(3), word(4))
	case "rect":
		err = i.canvas.Rect(num(0), num(1), num(2), num(3), word(4))
	case "circle":
		err = i.canvas.Circle(num(0), num(1), num(2), word(3))
	case "text":
		err = i.canvas.Text(num(0), num(1), word(2), word(3))
	case "clear":
		err = i.canvas.Clear()
	case "show":
		err = i.canvas.Show()
	default:
		return nil, i.blamef(fr, "canvas does not know how to %q", node.Op)
	}
	if err != nil {
		i.setMood(e, runtime.MoodAngry)
		return nil, i.blamef(fr, "draw %s on %q failed: %v", node.Op, node.Canvas, err)
	}
	return runtime.VoidValue{}, nil
}
