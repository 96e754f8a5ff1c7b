package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bitfantasy/harness-mes/internal/mes/entity"
	"github.com/bitfantasy/harness-mes/internal/mes/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 追溯方向
const (
	TraceBackward = "BACKWARD" // 批次 → 来料
	TraceForward  = "FORWARD"  // 来料 → 批次
)

// maxTraceDepth 追溯深度上限。血缘按构造是DAG，这里只是环路防线。
const maxTraceDepth = 32

// TraceNode 追溯树节点。按查询临时构建，不持久化。
type TraceNode struct {
	ID           string       `json:"id"`
	LotNumber    string       `json:"lot_number"`
	ProcessCode  string       `json:"process_code,omitempty"`
	ProductCode  string       `json:"product_code,omitempty"`
	MaterialCode string       `json:"material_code,omitempty"`
	Quantity     float64      `json:"quantity"`
	Type         string       `json:"type"` // PRODUCTION_LOT / MATERIAL_LOT / BUNDLE_LOT
	Status       string       `json:"status,omitempty"`
	Depth        int          `json:"depth"`
	Children     []*TraceNode `json:"children,omitempty"`
}

// TraceResult 追溯结果
type TraceResult struct {
	RootNode   *TraceNode `json:"root_node"`
	TotalNodes int        `json:"total_nodes"`
	MaxDepth   int        `json:"max_depth"`
	Direction  string     `json:"direction"`
	Found      bool       `json:"found"`
	Path       []string   `json:"path"` // 根到最深叶的批次号链
}

// TraceService 批次血缘追溯
type TraceService struct {
	lotRepo *repository.LotRepository
	logger  *zap.Logger
}

func NewTraceService(lotRepo *repository.LotRepository, logger *zap.Logger) *TraceService {
	return &TraceService{lotRepo: lotRepo, logger: logger}
}

// Backward 反向追溯：从批次回溯至来料
func (s *TraceService) Backward(ctx context.Context, lotNumber string) (*TraceResult, error) {
	return s.trace(ctx, lotNumber, TraceBackward)
}

// Forward 正向追溯：从批次向下游展开
func (s *TraceService) Forward(ctx context.Context, lotNumber string) (*TraceResult, error) {
	return s.trace(ctx, lotNumber, TraceForward)
}

func (s *TraceService) trace(ctx context.Context, lotNumber, direction string) (*TraceResult, error) {
	result := &TraceResult{Direction: direction, Path: []string{}}

	root, err := s.lotRepo.FindByLotNumber(ctx, lotNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, nil // Found=false
		}
		return nil, fmt.Errorf("查询起点批次失败: %w", err)
	}

	result.Found = true
	rootNode := &TraceNode{
		ID:          root.ID,
		LotNumber:   root.LotNumber,
		ProcessCode: root.ProcessCode,
		ProductCode: root.ProductCode,
		Quantity:    root.CompletedQty,
		Type:        entity.TraceTypeProduction,
		Status:      root.Status,
		Depth:       0,
	}
	result.RootNode = rootNode

	// 按层批量取边。环路以每条路径上的祖先集合判定：
	// 共用来料批次经多条路径汇入是正常血缘，只有回到自身祖先才是环。
	visited := map[string]bool{lotNumber: true}
	frontier := map[string]*TraceNode{lotNumber: rootNode}
	ancestors := map[string]map[string]bool{lotNumber: {lotNumber: true}}
	depth := 0

	for len(frontier) > 0 {
		if depth >= maxTraceDepth {
			return nil, fmt.Errorf("追溯深度超过 %d（疑似血缘环路），批次 %s: %w", maxTraceDepth, lotNumber, ErrTraceAnomaly)
		}

		lotNos := make([]string, 0, len(frontier))
		for no := range frontier {
			lotNos = append(lotNos, no)
		}

		var links []entity.LotLink
		var err error
		if direction == TraceBackward {
			links, err = s.lotRepo.ListLinksByChildren(ctx, lotNos)
		} else {
			links, err = s.lotRepo.ListLinksByParents(ctx, lotNos)
		}
		if err != nil {
			return nil, fmt.Errorf("查询血缘边失败: %w", err)
		}
		if len(links) == 0 {
			break
		}

		// 下一层节点的批次信息一次取齐
		nextLotNos := make([]string, 0, len(links))
		for _, link := range links {
			nextLotNos = append(nextLotNos, s.nextLotNo(link, direction))
		}
		lotInfo, err := s.lotRepo.FindLotsByNumbers(ctx, nextLotNos)
		if err != nil {
			return nil, fmt.Errorf("查询批次信息失败: %w", err)
		}

		depth++
		nextFrontier := make(map[string]*TraceNode)
		nextAncestors := make(map[string]map[string]bool)
		for _, link := range links {
			curNo := s.currentLotNo(link, direction)
			parentNode := frontier[curNo]
			if parentNode == nil {
				continue
			}
			nextNo := s.nextLotNo(link, direction)
			if ancestors[curNo][nextNo] {
				return nil, fmt.Errorf("批次 %s 在追溯路径上重复出现（血缘环路）: %w", nextNo, ErrTraceAnomaly)
			}

			node := s.buildNode(link, direction, nextNo, depth, lotInfo)
			parentNode.Children = append(parentNode.Children, node)

			// 已经走过的批次（菱形汇入）作为叶子挂出，不再展开
			if visited[nextNo] {
				continue
			}
			visited[nextNo] = true
			nextFrontier[nextNo] = node

			anc := make(map[string]bool, len(ancestors[curNo])+1)
			for no := range ancestors[curNo] {
				anc[no] = true
			}
			anc[nextNo] = true
			nextAncestors[nextNo] = anc
		}
		frontier = nextFrontier
		ancestors = nextAncestors
	}

	result.TotalNodes = countNodes(result.RootNode)
	result.MaxDepth = depth
	result.Path = deepestPath(result.RootNode)

	s.logger.Debug("trace built",
		zap.String("lot_number", lotNumber),
		zap.String("direction", direction),
		zap.Int("total_nodes", result.TotalNodes),
		zap.Int("max_depth", result.MaxDepth),
	)
	return result, nil
}

func (s *TraceService) currentLotNo(link entity.LotLink, direction string) string {
	if direction == TraceBackward {
		return link.ChildLotNo
	}
	return link.ParentLotNo
}

func (s *TraceService) nextLotNo(link entity.LotLink, direction string) string {
	if direction == TraceBackward {
		return link.ParentLotNo
	}
	return link.ChildLotNo
}

func (s *TraceService) buildNode(link entity.LotLink, direction, lotNo string, depth int, lotInfo map[string]entity.ProductionLot) *TraceNode {
	node := &TraceNode{
		ID:        uuid.New().String(),
		LotNumber: lotNo,
		Quantity:  link.Quantity,
		Type:      entity.TraceTypeProduction,
		Depth:     depth,
	}
	if direction == TraceBackward {
		node.Type = link.ParentType
		node.MaterialCode = link.MaterialCode
	}
	if lot, ok := lotInfo[lotNo]; ok {
		node.ID = lot.ID
		node.ProcessCode = lot.ProcessCode
		node.ProductCode = lot.ProductCode
		node.Status = lot.Status
	}
	return node
}

// LinkLots 登记一条血缘边（父批次/材料 → 子批次）
func (s *TraceService) LinkLots(ctx context.Context, parentLotNo, parentType, materialCode, childLotNo string, quantity float64, userID string) (*entity.LotLink, error) {
	if parentLotNo == "" || childLotNo == "" {
		return nil, fmt.Errorf("批次号为空: %w", ErrInvalidInput)
	}
	if parentLotNo == childLotNo {
		return nil, fmt.Errorf("批次不能与自身建立血缘: %w", ErrInvalidInput)
	}
	if parentType == "" {
		parentType = entity.TraceTypeProduction
	}

	link := &entity.LotLink{
		ID:           uuid.New().String(),
		ParentLotNo:  parentLotNo,
		ParentType:   parentType,
		MaterialCode: materialCode,
		ChildLotNo:   childLotNo,
		Quantity:     quantity,
		CreatedBy:    userID,
	}
	if err := s.lotRepo.CreateLink(ctx, link); err != nil {
		return nil, fmt.Errorf("保存血缘边失败: %w", err)
	}
	return link, nil
}

// Flatten 先序展开追溯树（节点在前，子节点按边顺序）
func Flatten(node *TraceNode) []*TraceNode {
	if node == nil {
		return nil
	}
	out := []*TraceNode{node}
	for _, child := range node.Children {
		out = append(out, Flatten(child)...)
	}
	return out
}

// Flatten 展开整个追溯结果
func (r *TraceResult) Flatten() []*TraceNode {
	if r == nil {
		return nil
	}
	return Flatten(r.RootNode)
}

func countNodes(node *TraceNode) int {
	if node == nil {
		return 0
	}
	count := 1
	for _, child := range node.Children {
		count += countNodes(child)
	}
	return count
}

// deepestPath 根到最深叶的批次号链；深度并列时取先发现的分支
func deepestPath(node *TraceNode) []string {
	if node == nil {
		return []string{}
	}
	best := []string{}
	for _, child := range node.Children {
		p := deepestPath(child)
		if len(p) > len(best) {
			best = p
		}
	}
	return append([]string{node.LotNumber}, best...)
}
