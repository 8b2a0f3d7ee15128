package scene

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/What42Pizza/WGPU-Template/engine/camera"
	"github.com/What42Pizza/WGPU-Template/engine/game_object"
	"github.com/What42Pizza/WGPU-Template/engine/model"
	"github.com/What42Pizza/WGPU-Template/engine/renderer"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/bind_group_provider"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/pipeline"
	"github.com/What42Pizza/WGPU-Template/engine/renderer/shader"
)

// Scene manages a registry of GameObjects grouped by Model for instanced rendering,
// with a Camera and Renderer. Objects sharing a Model contribute rows to a single
// instance buffer and are drawn with one instanced draw call per material.
// Scenes can be hot-swapped via the Active flag to switch between different views or levels.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's name.
	Name() string

	// SetName sets the scene's name.
	SetName(name string)

	// Active returns whether the scene is currently active for rendering.
	Active() bool

	// SetActive sets whether the scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera sets the scene's camera.
	//
	// Parameters:
	//   - cam: the camera to attach
	SetCamera(cam camera.Camera)

	// Renderer returns the scene's renderer.
	Renderer() renderer.Renderer

	// SetRenderer sets the scene's renderer.
	//
	// Parameters:
	//   - r: the renderer to attach
	SetRenderer(r renderer.Renderer)

	// Count returns the number of non-ephemeral objects in the registry.
	//
	// Returns:
	//   - int: the object count
	Count() int

	// CountInstances returns the total number of instances across all model groups,
	// including ephemeral objects.
	//
	// Returns:
	//   - int: the instance count
	CountInstances() int

	// Add registers a GameObject for rendering. The object's Model determines which
	// instance group it joins; objects sharing a Model are drawn with a single
	// instanced draw call. On the first object for a given Model, the scene creates
	// the model's GPU mesh and instance buffers and registers a render pipeline
	// built from the provided shaders (validating the vertex layout schema in the
	// process). Both shaders are required on every call because a model's pipeline
	// is resolved lazily.
	//
	// The object is assigned a unique ID (unless it already has one) and, if not
	// ephemeral, persisted in the scene registry.
	//
	// Parameters:
	//   - obj: the object to add (must have a Model)
	//   - vertexShader: the vertex shader for the model's pipeline
	//   - fragmentShader: the fragment shader for the model's pipeline
	//   - pipelineOpts: optional pipeline configuration overrides
	//
	// Returns:
	//   - uint64: the assigned object ID, or 0 if the object could not be added
	Add(obj game_object.GameObject, vertexShader, fragmentShader shader.Shader, pipelineOpts ...pipeline.PipelineBuilderOption) uint64

	// Get retrieves a non-ephemeral object by ID.
	//
	// Parameters:
	//   - id: the object ID to look up
	//
	// Returns:
	//   - game_object.GameObject: the object, or nil if not found
	Get(id uint64) game_object.GameObject

	// Remove removes an object from the registry and its model's instance group.
	//
	// Parameters:
	//   - id: the ID of the object to remove
	Remove(id uint64)

	// Clear removes all objects and instance groups from the scene.
	Clear()

	// PrepareFrame advances object transforms and uploads all per-frame GPU data:
	// the camera uniform and every model group's packed instance matrices.
	// Instance matrix packing is fanned out across a worker pool, one task per
	// model group; buffer writes are coalesced into a single renderer submission.
	// Must be called once per frame before DrawCalls.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous frame in seconds
	PrepareFrame(deltaTime float32)

	// DrawCalls encodes one instanced draw call per model group and material
	// within the current render pass. Must be called between the renderer's
	// BeginFrame and EndFrame.
	//
	// Returns:
	//   - error: an error if a draw call fails
	DrawCalls() error
}

// instanceGroup collects all objects sharing a Model plus the packed instance
// data staged for GPU upload each frame.
type instanceGroup struct {
	mdl     model.Model
	objects []game_object.GameObject

	pipelineKey string

	// instanceData is the packed matrix buffer rebuilt each frame; capacity is
	// the instance count the GPU-side buffer was allocated for.
	instanceData []byte
	capacity     int
	liveCount    int
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool

	groups     map[model.Model]*instanceGroup
	groupOrder []model.Model // stable iteration order for deterministic draw submission
	registry   map[uint64]game_object.GameObject
	nextID     uint64

	cam camera.Camera
	r   renderer.Renderer

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider

	// prepPool manages a bounded set of reusable goroutines for the parallel
	// instance packing phase of PrepareFrame. Workers persist across frames,
	// avoiding per-frame goroutine spawn/teardown overhead.
	prepPool    worker.DynamicWorkerPool
	prepWorkers int
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene with the given camera, renderer, and a vertex shader
// used to discover the camera's bind group layout. All three are required and NewScene
// panics if any of them is nil. The vertex shader's BindGroupVarNames are scanned for
// a group whose variable name contains "camera" and its layout descriptor is used to
// initialize the camera's BindGroupProvider on the GPU.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - r: the renderer to attach (must not be nil)
//   - vertexShader: a vertex shader whose bind groups include the camera uniform layout (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, vertexShader shader.Shader, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	if vertexShader == nil {
		panic("scene: NewScene requires a non-nil vertex shader for camera BGP init")
	}

	s := &scene{
		mu:                 &sync.RWMutex{},
		name:               name,
		active:             false,
		cam:                cam,
		r:                  r,
		groups:             make(map[model.Model]*instanceGroup),
		registry:           make(map[uint64]game_object.GameObject),
		nextID:             1,
		prepWorkers:        max(runtime.NumCPU()-1, 1),
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 2),
	}

	for _, option := range options {
		option(s)
	}

	// Initialize the prep pool after options so WithPrepWorkers can override the default.
	// Queue size of 256 accommodates typical model group counts with headroom.
	s.prepPool = worker.NewDynamicWorkerPool(s.prepWorkers, 256, 1*time.Second)

	// Initialize the camera's bind group on the GPU using the layout from the vertex shader.
	cameraGroup := 0
	for g, bindings := range vertexShader.BindGroupVarNames() {
		for _, varName := range bindings {
			if strings.Contains(strings.ToLower(varName), "camera") {
				cameraGroup = g
				break
			}
		}
	}
	if bgp := cam.BindGroupProvider(); bgp != nil {
		if err := r.InitBindGroup(bgp, vertexShader.BindGroupLayoutDescriptor(cameraGroup), nil, nil); err != nil {
			panic(fmt.Sprintf("scene: failed to init camera bind group: %v", err))
		}
	}

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r
}

func (s *scene) SetRenderer(r renderer.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.r = r
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) CountInstances() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, grp := range s.groups {
		total += len(grp.objects)
	}
	return total
}

func (s *scene) Add(obj game_object.GameObject, vertexShader, fragmentShader shader.Shader, pipelineOpts ...pipeline.PipelineBuilderOption) uint64 {
	if obj == nil || obj.Model() == nil {
		return 0
	}
	if vertexShader == nil || fragmentShader == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mdl := obj.Model()
	grp, exists := s.groups[mdl]
	if !exists {
		key := vertexShader.Key() + "_" + fragmentShader.Key()
		if s.r.Pipeline(key) == nil {
			opts := append([]pipeline.PipelineBuilderOption{
				pipeline.WithVertexShader(vertexShader),
				pipeline.WithFragmentShader(fragmentShader),
			}, pipelineOpts...)
			if err := s.r.RegisterPipelines(pipeline.NewPipeline(key, opts...)); err != nil {
				return 0
			}
		}

		// Route the model's materials to the registered pipeline unless the
		// loader already assigned one.
		for _, mat := range mdl.RenderMaterials() {
			if mat.PipelineKey() == "" {
				mat.SetPipelineKey(key)
			}
		}

		// First object for this model: upload mesh buffers if the loader hasn't.
		mp := mdl.MeshProvider()
		if mp != nil && mp.VertexBuffer() == nil {
			if err := s.r.InitMeshBuffers(mp, mdl.VertexData(), mdl.IndexData(), mdl.IndexCount()); err != nil {
				return 0
			}
		}

		grp = &instanceGroup{mdl: mdl, pipelineKey: key}
		s.groups[mdl] = grp
		s.groupOrder = append(s.groupOrder, mdl)
	}

	grp.objects = append(grp.objects, obj)

	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	}
	if !obj.Ephemeral() {
		s.registry[obj.ID()] = obj
	}

	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)

	grp, ok := s.groups[obj.Model()]
	if !ok {
		return
	}
	for i, o := range grp.objects {
		if o.ID() == id {
			grp.objects = append(grp.objects[:i], grp.objects[i+1:]...)
			break
		}
	}
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry = make(map[uint64]game_object.GameObject)
	s.groups = make(map[model.Model]*instanceGroup)
	s.groupOrder = s.groupOrder[:0]
}

func (s *scene) PrepareFrame(deltaTime float32) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return
	}

	// Update camera matrices and stage the camera uniform write.
	allWrites := s.writePool[:0]
	if s.cam != nil {
		s.cam.Update()
		if camBGP := s.cam.BindGroupProvider(); camBGP != nil {
			uniform := s.cam.Uniform()
			allWrites = append(allWrites, bind_group_provider.BufferWrite{
				Provider: camBGP,
				Binding:  0,
				Offset:   0,
				Data:     uniform.Marshal(),
			})
		}
	}

	// Phase 1: parallel instance packing, one task per model group. Each task
	// ticks its objects and packs their model matrices into the group's staged
	// instance buffer. Workers are reused across frames (no goroutine spawn
	// overhead). A WaitGroup provides per-frame barrier sync since pool.Wait()
	// blocks until workers idle-exit which is unsuitable for frame-rate workloads.
	var wg sync.WaitGroup
	taskID := 0
	for _, mdl := range s.groupOrder {
		grp := s.groups[mdl]
		if len(grp.objects) == 0 {
			grp.liveCount = 0
			continue
		}

		wg.Add(1)
		grpCap := grp // capture for closure
		id := taskID
		taskID++
		s.prepPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()

				stride := (&model.GPUInstanceData{}).Size()
				needed := len(grpCap.objects) * stride
				if cap(grpCap.instanceData) < needed {
					grpCap.instanceData = make([]byte, 0, needed)
				}
				grpCap.instanceData = grpCap.instanceData[:0]

				live := 0
				for _, obj := range grpCap.objects {
					if !obj.Enabled() {
						continue
					}
					obj.Tick(deltaTime)
					gpuData := obj.InstanceTransform().GPUData()
					grpCap.instanceData = append(grpCap.instanceData, gpuData.Marshal()...)
					live++
				}
				grpCap.liveCount = live
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: serial GPU submission. Groups that outgrew their GPU buffer get a
	// fresh instance buffer; the rest re-write in place. The camera uniform and
	// any other staged writes go out in a single coalesced call.
	for _, mdl := range s.groupOrder {
		grp := s.groups[mdl]
		if grp.liveCount == 0 {
			continue
		}
		mp := grp.mdl.MeshProvider()
		if mp == nil {
			continue
		}

		if grp.liveCount > grp.capacity {
			if err := s.r.InitInstanceBuffer(mp, grp.instanceData, grp.liveCount); err != nil {
				continue
			}
			grp.capacity = grp.liveCount
		} else {
			s.r.WriteInstanceBuffer(mp, grp.instanceData)
			mp.SetInstanceCount(grp.liveCount)
		}
	}
	s.writePool = allWrites

	if len(allWrites) > 0 {
		s.r.WriteBuffers(allWrites)
	}
}

func (s *scene) DrawCalls() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.r == nil {
		return fmt.Errorf("scene %q has no renderer attached", s.name)
	}

	for _, mdl := range s.groupOrder {
		grp := s.groups[mdl]
		if grp.liveCount == 0 {
			continue
		}

		meshProvider := grp.mdl.MeshProvider()
		if meshProvider == nil {
			continue
		}

		mats := grp.mdl.RenderMaterials()
		if len(mats) == 0 {
			continue
		}

		for _, mat := range mats {
			pipelineKey := mat.PipelineKey()
			if pipelineKey == "" {
				pipelineKey = grp.pipelineKey
			}
			if s.r.Pipeline(pipelineKey) == nil {
				continue
			}

			// Bind group order follows the shader pair's group indices: the
			// camera uniform sits at group 0 and the material's texture and
			// sampler at group 1.
			bindGroups := s.drawBindGroupsPool[:0]
			if s.cam != nil && s.cam.BindGroupProvider() != nil {
				bindGroups = append(bindGroups, s.cam.BindGroupProvider())
			}
			if matBGP := mat.BindGroupProvider(); matBGP != nil {
				bindGroups = append(bindGroups, matBGP)
			}

			if err := s.r.DrawCall(pipelineKey, meshProvider, uint32(grp.liveCount), bindGroups); err != nil {
				return fmt.Errorf("draw call failed for model %q in scene %q: %w", grp.mdl.Name(), s.name, err)
			}
		}
	}

	return nil
}
