package layout

import (
	"sort"

	"github.com/xkilldash9x/trellis/internal/layout/boxtree"
	"github.com/xkilldash9x/trellis/internal/layout/cache"
	"github.com/xkilldash9x/trellis/internal/layout/geom"
	"github.com/xkilldash9x/trellis/internal/layout/style"
	"github.com/xkilldash9x/trellis/internal/layout/tree"
)

// flexDirectionInfo maps the flex axes onto the logical axes. A row main
// axis is the inline axis.
type flexDirectionInfo struct {
	column         bool
	isReverse      bool
	isCrossReverse bool
}

func getFlexDirectionInfo(st *style.ComputedStyle) flexDirectionInfo {
	return flexDirectionInfo{
		column:         st.FlexDirection.IsColumn(),
		isReverse:      st.FlexDirection.IsReverse(),
		isCrossReverse: st.FlexWrap == style.FlexWrapReverse,
	}
}

type flexItemMetadata struct {
	id tree.NodeID
	// Sizes are border box sizes; mainStatic and crossStatic are the
	// margins on each axis.
	flexBaseSize         float32
	hypotheticalMainSize float32
	targetMainSize       float32
	minMain, maxMain     float32
	mainStatic           float32
	crossStatic          float32
	crossSize            float32
	crossOffset          float32
	baseline             float32
	frozen               bool
}

func (it *flexItemMetadata) outerHypothetical() float32 {
	return it.hypotheticalMainSize + it.mainStatic
}

type flexLine struct {
	items      []*flexItemMetadata
	crossSize  float32
	mainSize   float32
	crossStart float32
	baseline   float32
}

func (d flexDirectionInfo) main(s geom.LogicalSize) float32 {
	if d.column {
		return s.Block
	}
	return s.Inline
}

func (d flexDirectionInfo) cross(s geom.LogicalSize) float32 {
	if d.column {
		return s.Inline
	}
	return s.Block
}

// layoutFlex runs the flex layout algorithm: base sizes, line collection,
// flexible lengths, cross sizes, then alignment on both axes.
func (p *pass) layoutFlex(id tree.NodeID, cbBlock float32, cbDef bool) {
	b := p.box(id)
	f := &p.frames[id]
	st := b.Style
	dirInfo := getFlexDirectionInfo(st)

	contentInline := f.contentSize().Inline
	specBlock, blockDef := p.specifiedBlock(id, cbBlock, cbDef)
	bp := p.blockBP(id)
	if blockDef {
		specBlock = p.clampBlock(id, specBlock, cbBlock, cbDef)
	}
	contentBlock := geom.Max(0, specBlock-bp)

	var items []*flexItemMetadata
	for _, c := range p.lt.Children(id) {
		cb := p.box(c)
		if cb.IsOutOfFlow() {
			p.frames[c].Static = geom.LogicalPoint{}
			continue
		}
		items = append(items, &flexItemMetadata{id: c})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return p.box(items[i].id).Style.Order < p.box(items[j].id).Style.Order
	})

	availableMainSize := contentInline
	mainDefinite := true
	if dirInfo.column {
		availableMainSize, mainDefinite = contentBlock, blockDef
		if !blockDef {
			availableMainSize = p.clampBlock(id, bp, cbBlock, cbDef) - bp
		}
	}
	mainGap, crossGap := st.ColumnGap, st.RowGap
	if dirInfo.column {
		mainGap, crossGap = st.RowGap, st.ColumnGap
	}

	p.calculateFlexBaseSizes(items, dirInfo, contentInline, contentBlock, blockDef)

	if dirInfo.column && !mainDefinite {
		// An auto-height column container is as tall as its content.
		var sum float32
		for i, it := range items {
			sum += it.outerHypothetical()
			if i > 0 {
				sum += mainGap
			}
		}
		availableMainSize = geom.Max(availableMainSize, p.clampBlock(id, sum+bp, cbBlock, cbDef)-bp)
	}

	lines := p.collectFlexLines(items, st.FlexWrap, availableMainSize, mainGap)
	for _, line := range lines {
		p.resolveFlexibleLengths(line, availableMainSize, mainGap)
	}
	p.determineCrossSizes(lines, dirInfo, contentInline, contentBlock, blockDef)

	var totalCrossSize float32
	for i, line := range lines {
		totalCrossSize += line.crossSize
		if i > 0 {
			totalCrossSize += crossGap
		}
	}
	availableCrossSize := contentInline
	if !dirInfo.column {
		if blockDef {
			availableCrossSize = contentBlock
		} else {
			availableCrossSize = p.clampBlock(id, totalCrossSize+bp, cbBlock, cbDef) - bp
		}
	}
	if st.FlexWrap == style.FlexNoWrap && len(lines) == 1 {
		// The only line of a single-line container fills its cross size.
		lines[0].crossSize = availableCrossSize
		totalCrossSize = availableCrossSize
	}

	p.alignCrossAxis(lines, st, dirInfo, availableCrossSize, totalCrossSize, crossGap)
	p.alignMainAxis(lines, st, dirInfo, availableMainSize, mainGap)

	if dirInfo.column {
		f.Size.Block = availableMainSize + bp
		f.ContentExtent = geom.LogicalSize{Inline: contentInline, Block: availableMainSize}
	} else {
		f.Size.Block = availableCrossSize + bp
		f.ContentExtent = geom.LogicalSize{Inline: contentInline, Block: totalCrossSize}
	}
	if blockDef {
		f.Size.Block = specBlock
	}

	f.HasBaseline = false
	if len(lines) > 0 && len(lines[0].items) > 0 {
		first := lines[0].items[0]
		ff := &p.frames[first.id]
		if ff.HasBaseline {
			f.Baseline = ff.Origin.Block + ff.Baseline + f.Border.BlockStart + f.Padding.BlockStart
			f.LastBaseline = f.Baseline
			f.HasBaseline = true
		}
	}
}

// calculateFlexBaseSizes resolves each item's flex base size and its
// hypothetical main size clamped by min and max sizes.
func (p *pass) calculateFlexBaseSizes(items []*flexItemMetadata, dirInfo flexDirectionInfo, contentInline, contentBlock float32, blockDef bool) {
	for _, it := range items {
		c := it.id
		cs := p.box(c).Style
		p.setEdges(c, contentInline)
		cf := &p.frames[c]
		delete(p.blockOverride, c)

		if dirInfo.column {
			it.mainStatic = cf.Margin.BlockSum()
			it.crossStatic = cf.Margin.InlineSum()
		} else {
			it.mainStatic = cf.Margin.InlineSum()
			it.crossStatic = cf.Margin.BlockSum()
		}

		mainBasis, mainDef := contentInline, true
		if dirInfo.column {
			mainBasis, mainDef = contentBlock, blockDef
		}
		baseSize, ok := float32(0), false
		if v, rok := cs.FlexBasis.Resolve(mainBasis, mainDef); rok {
			bp := p.inlineBP(c)
			if dirInfo.column {
				bp = p.blockBP(c)
			}
			baseSize, ok = toBorderBox(cs, v, bp), true
		}
		if !ok {
			if dirInfo.column {
				baseSize, ok = p.specifiedBlock(c, contentBlock, blockDef)
			} else {
				baseSize, ok = p.specifiedInline(c, contentInline, true)
			}
		}
		if !ok {
			if dirInfo.column {
				w := p.flexItemCrossInline(c, contentInline)
				p.layoutChild(c, w, contentBlock, blockDef, nil, geom.LogicalPoint{})
				baseSize = cf.Size.Block
			} else if p.box(c).Inner == boxtree.InnerReplaced {
				baseSize = p.replacedContentSize(c, contentInline, contentBlock, blockDef).Inline + p.inlineBP(c)
			} else {
				baseSize = p.intrinsic(c).Max
			}
		}

		if dirInfo.column {
			it.minMain = p.clampBlock(c, 0, contentBlock, blockDef)
			it.maxMain = p.clampBlock(c, geom.Max(baseSize, 1e9), contentBlock, blockDef)
		} else {
			// Automatic minimum size: min-content unless the item clips.
			auto := p.intrinsic(c).Min
			_, mn, _ := cs.InlineSize(p.wm)
			if !mn.IsAuto() || cs.ClipsOverflow() {
				auto = 0
			}
			it.minMain = geom.Max(p.clampInline(c, 0, contentInline), auto)
			it.maxMain = p.clampInline(c, 1e9, contentInline)
		}
		it.flexBaseSize = baseSize
		it.hypotheticalMainSize = geom.Clamp(baseSize, it.minMain, geom.Max(it.minMain, it.maxMain))
	}
}

// flexItemCrossInline is the inline size of an item in a column container
// before cross-axis alignment.
func (p *pass) flexItemCrossInline(c tree.NodeID, contentInline float32) float32 {
	cf := &p.frames[c]
	if w, ok := p.specifiedInline(c, contentInline, true); ok {
		return p.clampInline(c, w, contentInline)
	}
	if p.box(c).Inner == boxtree.InnerReplaced {
		return p.replacedContentSize(c, contentInline, 0, false).Inline + p.inlineBP(c)
	}
	if p.alignFor(c) == style.AlignStretch {
		return p.clampInline(c, contentInline-cf.Margin.InlineSum(), contentInline)
	}
	return p.clampInline(c, p.shrinkToFit(c, contentInline-cf.Margin.InlineSum()), contentInline)
}

// collectFlexLines breaks items into lines when the container wraps.
func (p *pass) collectFlexLines(items []*flexItemMetadata, wrap style.FlexWrap, availableMainSize, gap float32) []*flexLine {
	var lines []*flexLine
	currentLine := &flexLine{}
	lines = append(lines, currentLine)

	if wrap == style.FlexNoWrap {
		currentLine.items = items
		for i, it := range items {
			currentLine.mainSize += it.outerHypothetical()
			if i > 0 {
				currentLine.mainSize += gap
			}
		}
		return lines
	}

	var currentMainSize float32
	for _, it := range items {
		itemMainSize := it.outerHypothetical()
		if len(currentLine.items) > 0 && currentMainSize+gap+itemMainSize > availableMainSize+geom.Epsilon {
			currentLine.mainSize = currentMainSize
			currentLine = &flexLine{}
			lines = append(lines, currentLine)
			currentMainSize = 0
		}
		if len(currentLine.items) > 0 {
			currentMainSize += gap
		}
		currentLine.items = append(currentLine.items, it)
		currentMainSize += itemMainSize
	}
	currentLine.mainSize = currentMainSize
	return lines
}

// resolveFlexibleLengths distributes free space by flex-grow or scaled
// flex-shrink, freezing items that hit their min or max size and
// redistributing until every item is frozen.
func (p *pass) resolveFlexibleLengths(line *flexLine, availableMainSize, gap float32) {
	isGrowing := line.mainSize < availableMainSize
	grow := func(it *flexItemMetadata) float32 { return geom.Max(0, p.box(it.id).Style.FlexGrow) }
	shrink := func(it *flexItemMetadata) float32 { return geom.Max(0, p.box(it.id).Style.FlexShrink) }

	for _, it := range line.items {
		it.targetMainSize = it.hypotheticalMainSize
		it.frozen = false
		factor := grow(it)
		if !isGrowing {
			factor = shrink(it)
		}
		if factor == 0 || (isGrowing && it.flexBaseSize > it.hypotheticalMainSize) || (!isGrowing && it.flexBaseSize < it.hypotheticalMainSize) {
			it.frozen = true
		}
	}
	gaps := gap * float32(max(0, len(line.items)-1))

	for iter := 0; iter <= len(line.items); iter++ {
		used := gaps
		var sumGrow, sumScaledShrink float32
		unfrozen := 0
		for _, it := range line.items {
			if it.frozen {
				used += it.targetMainSize + it.mainStatic
				continue
			}
			used += it.flexBaseSize + it.mainStatic
			sumGrow += grow(it)
			sumScaledShrink += shrink(it) * it.flexBaseSize
			unfrozen++
		}
		if unfrozen == 0 {
			break
		}
		remainingFreeSpace := availableMainSize - used
		if isGrowing && sumGrow < 1 {
			// Factors summing below one take only that share of the space.
			if share := (availableMainSize - used) * sumGrow; geom.Abs(share) < geom.Abs(remainingFreeSpace) {
				remainingFreeSpace = share
			}
		}

		var totalViolation float32
		for _, it := range line.items {
			if it.frozen {
				continue
			}
			target := it.flexBaseSize
			switch {
			case isGrowing && sumGrow > 0:
				target += remainingFreeSpace * grow(it) / sumGrow
			case !isGrowing && sumScaledShrink > 0:
				target += remainingFreeSpace * shrink(it) * it.flexBaseSize / sumScaledShrink
			}
			clamped := geom.Clamp(target, it.minMain, geom.Max(it.minMain, it.maxMain))
			totalViolation += clamped - target
			it.targetMainSize = clamped
		}

		switch {
		case geom.Approx(totalViolation, 0):
			for _, it := range line.items {
				it.frozen = true
			}
		case totalViolation > 0:
			for _, it := range line.items {
				if !it.frozen && geom.Approx(it.targetMainSize, it.minMain) {
					it.frozen = true
				}
			}
		default:
			for _, it := range line.items {
				if !it.frozen && geom.Approx(it.targetMainSize, it.maxMain) {
					it.frozen = true
				}
			}
		}
	}

	line.mainSize = gaps
	for _, it := range line.items {
		line.mainSize += it.targetMainSize + it.mainStatic
	}
}

// determineCrossSizes lays out every item at its target main size and
// takes the line cross size from the largest outer cross size, or from
// the aligned baselines.
func (p *pass) determineCrossSizes(lines []*flexLine, dirInfo flexDirectionInfo, contentInline, contentBlock float32, blockDef bool) {
	for _, line := range lines {
		var maxAbove, maxBelow, maxCrossSize float32
		for _, it := range line.items {
			cf := &p.frames[it.id]
			if dirInfo.column {
				p.blockOverride[it.id] = it.targetMainSize
				w := p.flexItemCrossInline(it.id, contentInline)
				p.layoutChild(it.id, w, contentBlock, blockDef, nil, geom.LogicalPoint{})
				it.crossSize = w
			} else {
				p.layoutChild(it.id, it.targetMainSize, contentBlock, blockDef, nil, geom.LogicalPoint{})
				it.crossSize = cf.Size.Block
			}
			outer := it.crossSize + it.crossStatic
			if !dirInfo.column && p.alignFor(it.id) == style.AlignBaseline {
				it.baseline = cf.Margin.BlockStart + p.itemBaseline(it.id)
				maxAbove = geom.Max(maxAbove, it.baseline)
				maxBelow = geom.Max(maxBelow, outer-it.baseline)
			}
			maxCrossSize = geom.Max(maxCrossSize, outer)
		}
		line.baseline = maxAbove
		line.crossSize = geom.Max(maxCrossSize, maxAbove+maxBelow)
	}
}

func (p *pass) itemBaseline(id tree.NodeID) float32 {
	f := &p.frames[id]
	if f.HasBaseline {
		return f.Baseline
	}
	return f.Size.Block
}

// alignFor resolves align-self against the parent's align-items.
func (p *pass) alignFor(id tree.NodeID) style.AlignItems {
	b := p.box(id)
	a := b.Style.AlignSelf
	if a == style.AlignAuto && b.Parent != tree.None {
		a = p.box(b.Parent).Style.AlignItems
	}
	if a == style.AlignAuto {
		a = style.AlignStretch
	}
	return a
}

// alignCrossAxis positions lines with align-content and items inside
// their line with align-self.
func (p *pass) alignCrossAxis(lines []*flexLine, st *style.ComputedStyle, dirInfo flexDirectionInfo, availableCrossSize, totalCrossSize, gap float32) {
	var currentCrossOffset, spacing float32
	alignContent := st.AlignContent
	if st.FlexWrap != style.FlexNoWrap {
		if alignContent == style.AlignStretch && availableCrossSize > totalCrossSize && len(lines) > 0 {
			extraPerLine := (availableCrossSize - totalCrossSize) / float32(len(lines))
			for _, line := range lines {
				line.crossSize += extraPerLine
			}
			totalCrossSize = availableCrossSize
		}
		currentCrossOffset, spacing = calculateAlignmentOffsets(len(lines), totalCrossSize, availableCrossSize, contentAlignment(alignContent))
	}
	if dirInfo.isCrossReverse {
		currentCrossOffset = availableCrossSize - currentCrossOffset
	}

	for _, line := range lines {
		if dirInfo.isCrossReverse {
			line.crossStart = currentCrossOffset - line.crossSize
		} else {
			line.crossStart = currentCrossOffset
		}
		for _, it := range line.items {
			p.alignFlexItem(it, line, dirInfo)
		}
		step := line.crossSize + spacing + gap
		if dirInfo.isCrossReverse {
			currentCrossOffset -= step
		} else {
			currentCrossOffset += step
		}
	}
}

// alignFlexItem applies align-self inside a line. Stretched items with an
// auto cross size are laid out again at the line's cross size.
func (p *pass) alignFlexItem(it *flexItemMetadata, line *flexLine, dirInfo flexDirectionInfo) {
	cf := &p.frames[it.id]
	cs := p.box(it.id).Style
	align := p.alignFor(it.id)

	crossLen, _, _ := cs.BlockSize(p.wm)
	if dirInfo.column {
		crossLen, _, _ = cs.InlineSize(p.wm)
	}
	crossAuto := crossLen.IsAuto()

	if align == style.AlignStretch && crossAuto {
		target := geom.Max(0, line.crossSize-it.crossStatic)
		if dirInfo.column {
			if !geom.Approx(target, it.crossSize) && p.box(it.id).Inner != boxtree.InnerReplaced {
				target = p.clampInline(it.id, target, cf.cbInline)
				p.layoutChild(it.id, target, 0, false, nil, geom.LogicalPoint{})
				it.crossSize = target
			}
		} else if !geom.Approx(target, it.crossSize) {
			target = p.clampBlock(it.id, target, 0, false)
			p.blockOverride[it.id] = target
			p.layoutChild(it.id, it.targetMainSize, 0, false, nil, geom.LogicalPoint{})
			it.crossSize = cf.Size.Block
		}
		it.crossOffset = 0
		return
	}

	freeSpace := line.crossSize - it.crossSize - it.crossStatic
	switch align {
	case style.AlignFlexEnd:
		it.crossOffset = freeSpace
	case style.AlignCenter:
		it.crossOffset = freeSpace / 2
	case style.AlignBaseline:
		if !dirInfo.column {
			it.crossOffset = line.baseline - it.baseline
		}
	default:
		it.crossOffset = 0
	}
	if dirInfo.isCrossReverse && align != style.AlignBaseline {
		it.crossOffset = freeSpace - it.crossOffset
	}
}

// alignMainAxis applies justify-content and writes item origins.
func (p *pass) alignMainAxis(lines []*flexLine, st *style.ComputedStyle, dirInfo flexDirectionInfo, availableMainSize, gap float32) {
	for _, line := range lines {
		currentMainOffset, spacing := calculateAlignmentOffsets(len(line.items), line.mainSize, availableMainSize, justifyAlignment(st.JustifyContent))
		if dirInfo.isReverse {
			currentMainOffset = availableMainSize - currentMainOffset
		}
		for _, it := range line.items {
			cf := &p.frames[it.id]
			outer := it.targetMainSize + it.mainStatic
			start := currentMainOffset
			if dirInfo.isReverse {
				start = currentMainOffset - outer
			}
			cross := line.crossStart + it.crossOffset
			if dirInfo.column {
				cf.Origin = geom.LogicalPoint{Inline: cross + cf.Margin.InlineStart, Block: start + cf.Margin.BlockStart}
			} else {
				cf.Origin = geom.LogicalPoint{Inline: start + cf.Margin.InlineStart, Block: cross + cf.Margin.BlockStart}
			}
			step := outer + spacing + gap
			if dirInfo.isReverse {
				currentMainOffset -= step
			} else {
				currentMainOffset += step
			}
		}
	}
}

// alignBehavior is the distribution shared by justify-content and
// align-content.
type alignBehavior uint8

const (
	alignStart alignBehavior = iota
	alignEnd
	alignCenter
	alignBetween
	alignAround
	alignEvenly
)

func justifyAlignment(j style.JustifyContent) alignBehavior {
	switch j {
	case style.JustifyFlexEnd:
		return alignEnd
	case style.JustifyCenter:
		return alignCenter
	case style.JustifySpaceBetween:
		return alignBetween
	case style.JustifySpaceAround:
		return alignAround
	case style.JustifySpaceEvenly:
		return alignEvenly
	}
	return alignStart
}

func contentAlignment(a style.AlignItems) alignBehavior {
	switch a {
	case style.AlignFlexEnd:
		return alignEnd
	case style.AlignCenter:
		return alignCenter
	case style.AlignSpaceBetween:
		return alignBetween
	case style.AlignSpaceAround:
		return alignAround
	}
	return alignStart
}

// calculateAlignmentOffsets returns the leading offset and the extra space
// between items for a distribution.
func calculateAlignmentOffsets(itemCount int, totalSize, availableSize float32, behavior alignBehavior) (startOffset, spacing float32) {
	freeSpace := availableSize - totalSize
	if freeSpace <= geom.Epsilon {
		return 0, 0
	}
	switch behavior {
	case alignEnd:
		startOffset = freeSpace
	case alignCenter:
		startOffset = freeSpace / 2
	case alignBetween:
		if itemCount > 1 {
			spacing = freeSpace / float32(itemCount-1)
		}
	case alignAround:
		if itemCount > 0 {
			spacing = freeSpace / float32(itemCount)
			startOffset = spacing / 2
		} else {
			startOffset = freeSpace / 2
		}
	case alignEvenly:
		if itemCount > 0 {
			spacing = freeSpace / float32(itemCount+1)
			startOffset = spacing
		} else {
			startOffset = freeSpace / 2
		}
	}
	return startOffset, spacing
}

// flexIntrinsic measures a flex container from its items' contributions.
func (p *pass) flexIntrinsic(id tree.NodeID) cache.Intrinsic {
	st := p.box(id).Style
	var in cache.Intrinsic
	n := 0
	for _, c := range p.lt.Children(id) {
		if p.box(c).IsOutOfFlow() {
			continue
		}
		ci := p.outerIntrinsic(c)
		if st.FlexDirection.IsColumn() {
			in.Min = geom.Max(in.Min, ci.Min)
			in.Max = geom.Max(in.Max, ci.Max)
			continue
		}
		if n > 0 {
			in.Max += st.ColumnGap
		}
		in.Max += ci.Max
		if st.FlexWrap == style.FlexNoWrap {
			if n > 0 {
				in.Min += st.ColumnGap
			}
			in.Min += ci.Min
		} else {
			in.Min = geom.Max(in.Min, ci.Min)
		}
		n++
	}
	return in
}
